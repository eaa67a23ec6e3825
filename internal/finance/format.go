package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Grouping selects how the integer part of an amount is split into groups.
type Grouping int

const (
	// GroupIndian groups the last three digits, then pairs: 12,34,567.
	GroupIndian Grouping = iota
	// GroupWestern groups in threes: 1,234,567.
	GroupWestern
)

// ParseGrouping maps a config value to a Grouping. Unknown values mean Indian.
func ParseGrouping(s string) Grouping {
	if strings.EqualFold(s, "western") {
		return GroupWestern
	}
	return GroupIndian
}

// Formatter renders amounts for people. It never changes aggregate values.
type Formatter struct {
	Symbol   string
	Grouping Grouping
}

// DefaultFormatter renders rupees with Indian digit grouping.
func DefaultFormatter() Formatter {
	return Formatter{Symbol: "₹", Grouping: GroupIndian}
}

// Money renders d with two decimals, digit grouping and the currency symbol,
// e.g. ₹12,34,567.89 or -₹250.00.
func (f Formatter) Money(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + f.Symbol + f.Number(rounded.Abs())
}

// Signed renders d like Money but always with an explicit sign prefix.
func (f Formatter) Signed(d decimal.Decimal, sign string) string {
	return sign + f.Money(d.Abs())
}

// Number renders d with two decimals and digit grouping, without a symbol.
func (f Formatter) Number(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	grouped := groupDigits(intPart, f.Grouping)
	if neg {
		grouped = "-" + grouped
	}
	return grouped + "." + frac
}

// Percent renders d with one decimal place, e.g. "80.0".
func Percent(d decimal.Decimal) string {
	return d.StringFixed(1)
}

func groupDigits(digits string, g Grouping) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	size := 3
	if g == GroupIndian {
		size = 2
	}

	var groups []string
	for len(head) > size {
		groups = append([]string{head[len(head)-size:]}, groups...)
		head = head[:len(head)-size]
	}
	groups = append([]string{head}, groups...)
	return strings.Join(append(groups, tail), ",")
}
