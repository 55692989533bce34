package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"CryptoChat/internal/domain/models"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.StructuredQuery
	}{
		{
			name: "price with ticker",
			text: "What's BTC trading at?",
			want: models.StructuredQuery{Intent: models.IntentPrice, CoinSymbol: "btc", Confidence: 2.0 / 6.0},
		},
		{
			name: "trending wins tie with chart on priority",
			text: "Show me trending coins",
			want: models.StructuredQuery{Intent: models.IntentTrending, Confidence: 0.2},
		},
		{
			name: "portfolio add",
			text: "I have 2 ETH",
			want: models.StructuredQuery{
				Intent:     models.IntentPortfolio,
				CoinSymbol: "eth",
				Amount:     2,
				Action:     models.ActionAdd,
				Confidence: 0.2,
			},
		},
		{
			name: "portfolio show",
			text: "show my portfolio",
			want: models.StructuredQuery{Intent: models.IntentPortfolio, Action: models.ActionShow, Confidence: 0.2},
		},
		{
			name: "stats",
			text: "Tell me about Bitcoin",
			want: models.StructuredQuery{Intent: models.IntentStats, CoinSymbol: "btc", Confidence: 0.4},
		},
		{
			name: "chart",
			text: "Show me BTC chart",
			want: models.StructuredQuery{Intent: models.IntentChart, CoinSymbol: "btc", Confidence: 0.4},
		},
		{
			name: "chart by name",
			text: "ETH performance",
			want: models.StructuredQuery{Intent: models.IntentChart, CoinSymbol: "eth", Confidence: 0.2},
		},
		{
			name: "trending multiple keywords",
			text: "What's hot?",
			want: models.StructuredQuery{Intent: models.IntentTrending, Confidence: 0.4},
		},
		{
			name: "help",
			text: "  HELP  ",
			want: models.StructuredQuery{Intent: models.IntentHelp, Confidence: 0.25},
		},
		{
			name: "unknown",
			text: "asdf qwerty",
			want: models.StructuredQuery{Intent: models.IntentUnknown, Confidence: 0},
		},
		{
			name: "empty",
			text: "",
			want: models.StructuredQuery{Intent: models.IntentUnknown, Confidence: 0},
		},
		{
			name: "price ignores amount",
			text: "What's the price of 2 BTC",
			want: models.StructuredQuery{Intent: models.IntentPrice, CoinSymbol: "btc", Confidence: 1.0 / 6.0},
		},
		{
			name: "price without coin",
			text: "what is the price",
			want: models.StructuredQuery{Intent: models.IntentPrice, Confidence: 1.0 / 6.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.text)
			assert.Equal(t, tt.want.Intent, got.Intent)
			assert.Equal(t, tt.want.CoinSymbol, got.CoinSymbol)
			assert.Equal(t, tt.want.Amount, got.Amount)
			assert.Equal(t, tt.want.Action, got.Action)
			assert.InDelta(t, tt.want.Confidence, got.Confidence, 1e-9)
		})
	}
}

func TestParseQuery_ConfidenceBounds(t *testing.T) {
	inputs := []string{
		"price trading worth cost value trading at",
		"trending popular hot top coins what's hot",
		"help commands what can you do assistance",
		"random words",
		"show me the chart graph history performance",
	}

	for _, in := range inputs {
		q := ParseQuery(in)
		assert.GreaterOrEqual(t, q.Confidence, 0.0, in)
		assert.LessOrEqual(t, q.Confidence, 1.0, in)
		if q.Intent == models.IntentUnknown {
			assert.Zero(t, q.Confidence)
		}
	}

	assert.Equal(t, 1.0, ParseQuery("price trading worth cost value trading at").Confidence)
}

func TestParseQuery_Deterministic(t *testing.T) {
	text := "I own 1.5 SOL, show me the chart"
	first := ParseQuery(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ParseQuery(text))
	}
}

func TestParseQuery_FieldsOnlyForRelevantIntents(t *testing.T) {
	q := ParseQuery("top coins trending BTC")
	assert.Equal(t, models.IntentTrending, q.Intent)
	assert.Empty(t, q.CoinSymbol)

	q = ParseQuery("help me with BTC")
	assert.Equal(t, models.IntentHelp, q.Intent)
	assert.Empty(t, q.CoinSymbol)
}

func TestParser_CustomPatterns(t *testing.T) {
	p := New(WithPatterns([]IntentPattern{
		{Intent: models.IntentHelp, Keywords: []string{"sos"}, Priority: 1},
	}))

	assert.Equal(t, models.IntentHelp, p.ParseQuery("SOS").Intent)
	assert.Equal(t, models.IntentUnknown, p.ParseQuery("price").Intent)
}

func TestDefaultPatterns_IsCopy(t *testing.T) {
	pats := DefaultPatterns()
	pats[0].Keywords[0] = "mutated"
	assert.Equal(t, models.IntentPrice, ParseQuery("price of eth").Intent)
}
