package models

// IntentType is the category of a user's chat message.
type IntentType string

const (
	IntentPrice     IntentType = "price"
	IntentTrending  IntentType = "trending"
	IntentPortfolio IntentType = "portfolio"
	IntentChart     IntentType = "chart"
	IntentStats     IntentType = "stats"
	IntentHelp      IntentType = "help"
	IntentUnknown   IntentType = "unknown"
)

// PortfolioAction is what the user wants done with their holdings.
// The empty value means no action was recognized.
type PortfolioAction string

const (
	ActionAdd    PortfolioAction = "add"
	ActionRemove PortfolioAction = "remove"
	ActionShow   PortfolioAction = "show"
)

// StructuredQuery is the classifier's output for one message.
// Zero values of CoinSymbol, Amount and Action mean "absent".
type StructuredQuery struct {
	Intent     IntentType      `json:"intent"`
	CoinSymbol string          `json:"coin_symbol,omitempty"`
	Amount     float64         `json:"amount,omitempty"`
	Action     PortfolioAction `json:"action,omitempty"`
	Confidence float64         `json:"confidence"`
}

func (q StructuredQuery) HasCoin() bool {
	return q.CoinSymbol != ""
}

func (q StructuredQuery) HasAmount() bool {
	return q.Amount > 0
}
