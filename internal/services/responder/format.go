package responder

import (
	"strings"

	"github.com/shopspring/decimal"
)

var billion = decimal.New(1, 9)

// FormatPrice renders a USD price with thousands separators. Prices of at
// least one unit after rounding get 2 decimals, smaller ones keep up to 8
// decimals so sub-cent coins do not collapse to 0.00.
func FormatPrice(p float64) string {
	d := decimal.NewFromFloat(p)
	if d.Abs().LessThan(decimal.NewFromInt(1)) {
		d = d.Round(8)
	}
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) || d.IsZero() {
		return groupThousands(d.StringFixed(2))
	}
	s := strings.TrimRight(d.StringFixed(8), "0")
	if dot := strings.IndexByte(s, '.'); len(s)-dot-1 < 2 {
		s += strings.Repeat("0", 2-(len(s)-dot-1))
	}
	return s
}

// FormatPercent renders a percentage with 2 decimals and no sign prefix for gains.
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}

// FormatBillions renders v divided by 1e9 with 2 decimals.
func FormatBillions(v float64) string {
	return decimal.NewFromFloat(v).Div(billion).StringFixed(2)
}

// FormatAmount renders a holding amount without trailing zeros.
func FormatAmount(a float64) string {
	return decimal.NewFromFloat(a).String()
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}
