package building

import (
	"strconv"
	"strings"
)

// FormatPrice formats a dollar amount with thousands separators, dropping
// the cents when they are zero: 250000 -> "$250,000", -1500 -> "-$1,500".
func FormatPrice(dollars float64) string {
	whole, cents, _ := strings.Cut(strconv.FormatFloat(dollars, 'f', 2, 64), ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)

	s := "$" + strings.Join(parts, ",")
	if neg {
		s = "-" + s
	}
	if cents != "00" {
		s += "." + cents
	}
	return s
}
