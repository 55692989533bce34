// Package classifier turns a chat message into a StructuredQuery using
// keyword scoring.
package classifier

import (
	"sort"
	"strings"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/services/extract"
	"CryptoChat/internal/services/lexicon"
)

// Option configures a Parser.
type Option func(*Parser)

// WithPatterns replaces the keyword table.
func WithPatterns(patterns []IntentPattern) Option {
	return func(p *Parser) {
		p.patterns = patterns
	}
}

// WithLexicon sets the coin table used for coin extraction.
func WithLexicon(lx *lexicon.Lexicon) Option {
	return func(p *Parser) {
		p.coins = extract.NewCoinExtractor(lx)
	}
}

// Parser is safe for concurrent use.
type Parser struct {
	patterns []IntentPattern
	coins    *extract.CoinExtractor
}

func New(opts ...Option) *Parser {
	p := &Parser{
		patterns: defaultPatterns,
		coins:    extract.NewCoinExtractor(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type score struct {
	pattern *IntentPattern
	matches int
}

// ParseQuery classifies text. It never fails: text that matches no keyword
// yields IntentUnknown with zero confidence.
func (p *Parser) ParseQuery(text string) models.StructuredQuery {
	normalized := strings.ToLower(strings.TrimSpace(text))

	scores := make([]score, 0, len(p.patterns))
	for i := range p.patterns {
		pat := &p.patterns[i]
		n := 0
		for _, kw := range pat.Keywords {
			if strings.Contains(normalized, kw) {
				n++
			}
		}
		if n > 0 {
			scores = append(scores, score{pattern: pat, matches: n})
		}
	}

	if len(scores) == 0 {
		return models.StructuredQuery{Intent: models.IntentUnknown, Confidence: 0}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].matches != scores[j].matches {
			return scores[i].matches > scores[j].matches
		}
		return scores[i].pattern.Priority < scores[j].pattern.Priority
	})

	best := scores[0]
	q := models.StructuredQuery{
		Intent:     best.pattern.Intent,
		Confidence: float64(best.matches) / float64(len(best.pattern.Keywords)),
	}

	switch q.Intent {
	case models.IntentPrice, models.IntentChart, models.IntentStats:
		q.CoinSymbol, _ = p.coins.ExtractCoinSymbol(text)
	case models.IntentPortfolio:
		q.Action, _ = extract.ExtractPortfolioAction(text)
		q.Amount, _ = extract.ExtractAmount(text)
		q.CoinSymbol, _ = p.coins.ExtractCoinSymbol(text)
	}

	return q
}

var defaultParser = New()

// ParseQuery classifies text with the built-in tables.
func ParseQuery(text string) models.StructuredQuery {
	return defaultParser.ParseQuery(text)
}
