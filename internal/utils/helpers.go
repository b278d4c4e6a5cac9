package utils

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders bytes in binary units (base 1024) with at most two decimals,
// trailing zeros trimmed: 0 -> "0 Bytes", 1536 -> "1.5 KB", 1048576 -> "1 MB".
// Sizes past the GB range stay in GB.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	div := 1.0
	for i < len(sizeUnits)-1 && float64(bytes) >= div*1024 {
		div *= 1024
		i++
	}
	v := math.Round(float64(bytes)/div*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// ClampPercent keeps a progress value inside 0..100.
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
