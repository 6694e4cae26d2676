package models

// Requests for indicator HTTP endpoints. Defined in domain for reuse by the CLI
// and the Kafka recompute handler.

type IndicatorRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	TF        string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1wk 1mo 1h 30m 15m 5m 1m"`
	Period    string `query:"period" json:"period" validate:"omitempty,oneof=1d 5d 1mo 60d 1y 2y 5y 10y max"`
	Start     string `query:"start" json:"start" validate:"omitempty,datetime=2006-01-02"`
	End       string `query:"end" json:"end" validate:"omitempty,datetime=2006-01-02"`
	Windows   string `query:"windows" json:"windows" default:"50, 100, 200"`
	ZLookback int    `query:"z" json:"z" default:"252" validate:"gte=2,lte=5000"`
	KLookback int    `query:"k" json:"k" default:"20" validate:"gte=2,lte=5000"`
	Rows      int    `query:"rows" json:"rows" validate:"gte=0"` // 0 keeps every row
}
