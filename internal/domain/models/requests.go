package models

// SymbolRequest selects one symbol's history and strategy.
type SymbolRequest struct {
	Symbol   string `param:"symbol" validate:"required,ticker"`
	Period   string `query:"period" default:"5y" validate:"oneof=1y 2y 5y 10y max"`
	Strategy string `query:"strategy" validate:"omitempty,oneof=defensive aggressive"`
}

// RegimesRequest asks for regime duration statistics.
type RegimesRequest struct {
	Symbol string `param:"symbol" validate:"required,ticker"`
	Period string `query:"period" default:"5y" validate:"oneof=1y 2y 5y 10y max"`
	Fine   bool   `query:"fine"`
}

// PortfolioRequest carries weighted holdings.
type PortfolioRequest struct {
	Holdings map[string]float64 `json:"holdings" validate:"required,min=1,dive,keys,required,ticker,endkeys,gte=0"`
	Period   string             `json:"period" default:"5y" validate:"oneof=1y 2y 5y 10y max"`
	History  bool               `json:"history"`
}

// CacheRequest names a symbol whose cached history is dropped.
type CacheRequest struct {
	Symbol string `param:"symbol" validate:"required,ticker"`
}
