package models

import "errors"

// Boundary errors. Insufficient or degenerate data is never an error; it is a state.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidMode        = errors.New("invalid learning mode")
	ErrInvalidSettings    = errors.New("invalid indicator settings")
	ErrEmptyPriceSeries   = errors.New("price series is empty")
	ErrUnorderedSeries    = errors.New("price series is not ordered by timestamp")
	ErrReportNotFound     = errors.New("report not found")
	ErrSymbolRequired     = errors.New("symbol is required to fetch price history")
	ErrPriceSourceMissing = errors.New("no price source configured")
)
