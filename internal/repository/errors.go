package repository

import "errors"

var (
	ErrIncompletePriceTable = errors.New("price table must cover every site type")
	ErrUnknownPriceKind     = errors.New("unknown price table kind")
)
