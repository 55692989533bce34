// Package extract pulls amounts, portfolio actions and coin symbols out of
// free-form chat text.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"CryptoChat/internal/domain/models"
)

// Tried in order; only the first match of each pattern is considered.
// A leading minus is captured so negative figures are rejected rather than
// read as positive.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*(?:coins?|tokens?)?`),
	regexp.MustCompile(`(?i)i\s+have\s+(-?\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s+\w+`),
}

// ExtractAmount returns the first strictly positive, finite number found in text.
func ExtractAmount(text string) (float64, bool) {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		return v, true
	}
	return 0, false
}

type actionKeywords struct {
	action   models.PortfolioAction
	keywords []string
}

// Checked in order: removal phrases contain "have" and must win over add.
var actionTable = []actionKeywords{
	{models.ActionRemove, []string{"sold", "remove", "don't have", "no longer"}},
	{models.ActionShow, []string{"show", "display", "portfolio", "holdings", "what do i"}},
	{models.ActionAdd, []string{"have", "own", "bought", "purchased", "i have"}},
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// ExtractPortfolioAction detects what the user wants done with their holdings.
func ExtractPortfolioAction(text string) (models.PortfolioAction, bool) {
	lower := apostrophes.Replace(strings.ToLower(text))
	for _, row := range actionTable {
		if containsAny(lower, row.keywords) {
			return row.action, true
		}
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
