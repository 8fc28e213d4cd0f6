package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9,.\-]`)
	leadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
)

// ParseAmount converts a bank amount into a signed float.
//
// The rightmost of ',' and '.' is the decimal separator and the other one is
// a thousands separator; a lone ',' is a decimal comma. Parenthesized values
// are negative. Anything unparseable yields 0.
func ParseAmount(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case float32:
		return ParseAmount(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case decimal.Decimal:
		return v.InexactFloat64()
	case string:
		return parseAmountString(v)
	default:
		return parseAmountString(fmt.Sprint(v))
	}
}

func parseAmountString(raw string) float64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0
	}

	negative := strings.Contains(text, "(") && strings.Contains(text, ")")
	cleaned := nonNumeric.ReplaceAllString(text, "")

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	standard := cleaned
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		standard = strings.Replace(strings.ReplaceAll(cleaned, ".", ""), ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		standard = strings.ReplaceAll(cleaned, ",", "")
	case lastComma >= 0:
		standard = strings.Replace(cleaned, ",", ".", 1)
	}

	// Bank exports occasionally carry trailing garbage after the number,
	// so only the leading numeric run is considered.
	m := leadingNumber.FindString(standard)
	if m == "" {
		return 0
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return 0
	}
	f := d.InexactFloat64()
	if negative {
		return -math.Abs(f)
	}
	return f
}

// Round2 rounds to cents.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// FormatAmount renders an amount the way Spanish banks display it: "1.234,56 €".
func FormatAmount(amount float64, currency string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}

	out := b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	switch strings.ToUpper(currency) {
	case "", "EUR":
		return out + " €"
	default:
		return out + " " + strings.ToUpper(currency)
	}
}

// FormatPercent renders a ratio as "12.5%".
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio*100).StringFixed(1) + "%"
}
