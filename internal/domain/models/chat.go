package models

import "time"

type ReplyType string

const (
	ReplyText  ReplyType = "text"
	ReplyChart ReplyType = "chart"
	ReplyError ReplyType = "error"
)

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Type      ReplyType       `json:"type"`
	Query     StructuredQuery `json:"query"`
	Chart     *ChartData      `json:"chart,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChartData is the 7-day series attached to chart replies.
type ChartData struct {
	Symbol  string       `json:"symbol"`
	Points  []PricePoint `json:"points"`
	Metrics PriceMetrics `json:"metrics"`
}

// PriceMetrics summarizes a price series for display.
type PriceMetrics struct {
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Range         float64 `json:"range"`
	AxisMin       float64 `json:"axis_min"`
	AxisMax       float64 `json:"axis_max"`
	StartPrice    float64 `json:"start_price"`
	CurrentPrice  float64 `json:"current_price"`
	ChangePercent float64 `json:"change_percent"`
	IsPositive    bool    `json:"is_positive"`
	Volatility    float64 `json:"volatility"`
}

// ChatEvent is the analytics record of one handled message.
type ChatEvent struct {
	EventID    string          `json:"event_id"`
	SessionID  string          `json:"session_id"`
	Message    string          `json:"message"`
	Intent     IntentType      `json:"intent"`
	Confidence float64         `json:"confidence"`
	CoinSymbol string          `json:"coin_symbol,omitempty"`
	Amount     float64         `json:"amount,omitempty"`
	Action     PortfolioAction `json:"action,omitempty"`
	ReplyType  ReplyType       `json:"reply_type"`
	LatencyMs  int64           `json:"latency_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}

// IntentCount is an aggregate of events per intent.
type IntentCount struct {
	Intent        IntentType `json:"intent"`
	Count         uint64     `json:"count"`
	AvgConfidence float64    `json:"avg_confidence"`
	ErrorReplies  uint64     `json:"error_replies"`
}
