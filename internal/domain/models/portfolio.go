package models

import "sort"

// Holding is an amount of one coin tracked for a user.
type Holding struct {
	Amount float64 `json:"amount"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
}

// Portfolio maps a provider coin id to its holding.
// Treat it as immutable: use With and Without to derive updated copies.
type Portfolio map[string]Holding

// With returns a copy of p where id holds h. The receiver is not modified.
func (p Portfolio) With(id string, h Holding) Portfolio {
	out := make(Portfolio, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[id] = h
	return out
}

// Without returns a copy of p without id.
func (p Portfolio) Without(id string) Portfolio {
	out := make(Portfolio, len(p))
	for k, v := range p {
		if k != id {
			out[k] = v
		}
	}
	return out
}

// IDs returns the coin ids in stable (sorted) order.
func (p Portfolio) IDs() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p Portfolio) IsEmpty() bool {
	return len(p) == 0
}

// ValuedHolding is a holding priced at the current market rate.
type ValuedHolding struct {
	CoinID string  `json:"coin_id"`
	Holding
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
	Change24 float64 `json:"price_change_percentage_24h"`
	Priced   bool    `json:"priced"`
}

// PortfolioValuation is a portfolio with live prices. Holdings whose price
// could not be fetched are listed with Priced=false and excluded from Total.
type PortfolioValuation struct {
	Holdings []ValuedHolding `json:"holdings"`
	Total    float64         `json:"total"`
}
