package extract

import (
	"regexp"
	"strings"

	"CryptoChat/internal/services/lexicon"
)

// Applied to the original-case text so only uppercase tickers qualify.
var tickerPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// CoinExtractor finds the coin a message refers to.
type CoinExtractor struct {
	lexicon *lexicon.Lexicon
}

func NewCoinExtractor(lx *lexicon.Lexicon) *CoinExtractor {
	if lx == nil {
		lx = lexicon.Default()
	}
	return &CoinExtractor{lexicon: lx}
}

// ExtractCoinSymbol returns a lowercase symbol for the coin mentioned in text.
// Known coins are matched by name or ticker in any case; otherwise the first
// all-caps word of 2 to 5 letters is taken as a ticker.
func (e *CoinExtractor) ExtractCoinSymbol(text string) (string, bool) {
	if sym, ok := e.lexicon.Match(text); ok {
		return sym, true
	}
	if m := tickerPattern.FindString(text); m != "" {
		return strings.ToLower(m), true
	}
	return "", false
}

var defaultCoinExtractor = NewCoinExtractor(nil)

// ExtractCoinSymbol uses the built-in lexicon.
func ExtractCoinSymbol(text string) (string, bool) {
	return defaultCoinExtractor.ExtractCoinSymbol(text)
}
