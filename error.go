package match

import "errors"

var (
	ErrInvalidParam = errors.New("the param is invalid")
	ErrNotFound     = errors.New("not found")
	ErrMarketExists = errors.New("market already exists")
	ErrBookFull     = errors.New("order book has no free order slot")
)
