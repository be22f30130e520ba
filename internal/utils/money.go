package utils

import (
	"strconv"
	"strings"
)

// FormatMoney renders minor units with thousand separators, e.g. "PKR 12,500".
func FormatMoney(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "PKR " + formatThousand(amount)
}

func formatThousand(n int64) string {
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
