package models

// Requests for chat HTTP endpoints.

type ChatRequest struct {
	SessionID string `json:"session_id" query:"session_id" default:"default" validate:"max=64"`
	Message   string `json:"message" validate:"required,max=500"`
}

type SessionRequest struct {
	SessionID string `query:"session_id" json:"session_id" default:"default" validate:"max=64"`
}

type RemoveHoldingRequest struct {
	SessionID string `query:"session_id" json:"session_id" default:"default" validate:"max=64"`
	CoinID    string `query:"coin_id" json:"coin_id" validate:"required,max=100"`
}

type TopCoinsRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type IntentStatsRequest struct {
	From string `query:"from" json:"from"`
	To   string `query:"to" json:"to"`
}
