// Package lexicon holds the table of cryptocurrencies recognized by name or ticker.
package lexicon

import (
	"fmt"
	"regexp"
	"strings"
)

// Entry is one recognized coin.
type Entry struct {
	Symbol  string
	Aliases []string
	pattern *regexp.Regexp
}

// Lexicon is an ordered, read-only coin table. Earlier entries win when a
// text mentions several coins.
type Lexicon struct {
	entries []Entry
}

var defaultLexicon = MustNew([]Definition{
	{Symbol: "btc", Aliases: []string{"bitcoin"}},
	{Symbol: "eth", Aliases: []string{"ethereum"}},
	{Symbol: "ada", Aliases: []string{"cardano"}},
	{Symbol: "sol", Aliases: []string{"solana"}},
	{Symbol: "dot", Aliases: []string{"polkadot"}},
	{Symbol: "avax", Aliases: []string{"avalanche"}},
	{Symbol: "matic", Aliases: []string{"polygon"}},
	{Symbol: "link", Aliases: []string{"chainlink"}},
	{Symbol: "uni", Aliases: []string{"uniswap"}},
	{Symbol: "doge", Aliases: []string{"dogecoin"}},
	{Symbol: "shib", Aliases: []string{"shiba"}},
	{Symbol: "xrp", Aliases: []string{"ripple"}},
})

// Default returns the built-in coin table.
func Default() *Lexicon {
	return defaultLexicon
}

// Definition describes a coin for New.
type Definition struct {
	Symbol  string
	Aliases []string
}

// New compiles a lexicon. Symbols and aliases are matched as whole words,
// case-insensitively.
func New(defs []Definition) (*Lexicon, error) {
	entries := make([]Entry, 0, len(defs))
	for _, d := range defs {
		sym := strings.ToLower(strings.TrimSpace(d.Symbol))
		if sym == "" {
			return nil, fmt.Errorf("lexicon: empty symbol")
		}

		words := []string{regexp.QuoteMeta(sym)}
		aliases := make([]string, 0, len(d.Aliases))
		for _, a := range d.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			aliases = append(aliases, a)
			words = append(words, regexp.QuoteMeta(a))
		}

		re, err := regexp.Compile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("lexicon: compile %s: %w", sym, err)
		}
		entries = append(entries, Entry{Symbol: sym, Aliases: aliases, pattern: re})
	}
	return &Lexicon{entries: entries}, nil
}

// MustNew is like New but panics on error.
func MustNew(defs []Definition) *Lexicon {
	l, err := New(defs)
	if err != nil {
		panic(err)
	}
	return l
}

// Match returns the symbol of the first entry mentioned in text.
func (l *Lexicon) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, e := range l.entries {
		if e.pattern.MatchString(lower) {
			return e.Symbol, true
		}
	}
	return "", false
}

// IsKnownSymbol reports whether s is a symbol or alias in the table.
func (l *Lexicon) IsKnownSymbol(s string) bool {
	_, ok := l.lookup(s)
	return ok
}

// Normalize maps a symbol or alias to its canonical symbol.
// Unknown input is returned lowercased.
func (l *Lexicon) Normalize(s string) string {
	if e, ok := l.lookup(s); ok {
		return e.Symbol
	}
	return strings.ToLower(s)
}

// Symbols lists canonical symbols in priority order.
func (l *Lexicon) Symbols() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Symbol
	}
	return out
}

func (l *Lexicon) lookup(s string) (Entry, bool) {
	s = strings.ToLower(s)
	for _, e := range l.entries {
		if e.Symbol == s {
			return e, true
		}
		for _, a := range e.Aliases {
			if a == s {
				return e, true
			}
		}
	}
	return Entry{}, false
}
