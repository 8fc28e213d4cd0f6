package model

// Budget is a monthly spending target for one macro category.
type Budget struct {
	Month    string  `json:"month"` // YYYY-MM
	Macro    string  `json:"macro"`
	Amount   float64 `json:"budget_amount"`
	Alert75  bool    `json:"alert_75"`
	Alert100 bool    `json:"alert_100"`
}
