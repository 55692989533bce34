package classifier

import "CryptoChat/internal/domain/models"

// IntentPattern lists the phrases that signal an intent. Lower Priority wins ties.
type IntentPattern struct {
	Intent   models.IntentType
	Keywords []string
	Priority int
}

// DefaultPatterns returns a copy of the built-in keyword table.
func DefaultPatterns() []IntentPattern {
	out := make([]IntentPattern, len(defaultPatterns))
	for i, p := range defaultPatterns {
		out[i] = IntentPattern{
			Intent:   p.Intent,
			Keywords: append([]string(nil), p.Keywords...),
			Priority: p.Priority,
		}
	}
	return out
}

var defaultPatterns = []IntentPattern{
	{
		Intent:   models.IntentPrice,
		Keywords: []string{"price", "trading", "worth", "cost", "value", "trading at"},
		Priority: 1,
	},
	{
		Intent:   models.IntentTrending,
		Keywords: []string{"trending", "popular", "hot", "top coins", "what's hot"},
		Priority: 2,
	},
	{
		Intent:   models.IntentPortfolio,
		Keywords: []string{"have", "own", "portfolio", "holdings", "my coins"},
		Priority: 3,
	},
	{
		Intent:   models.IntentChart,
		Keywords: []string{"chart", "graph", "history", "performance", "show me"},
		Priority: 4,
	},
	{
		Intent:   models.IntentStats,
		Keywords: []string{"stats", "info", "about", "details", "tell me about"},
		Priority: 5,
	},
	{
		Intent:   models.IntentHelp,
		Keywords: []string{"help", "commands", "what can you do", "assistance"},
		Priority: 6,
	},
}
