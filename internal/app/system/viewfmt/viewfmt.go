// Package viewfmt formats raw numbers from the statistics API for display.
//
// Every function is pure and locale independent: the same input always
// produces the same string.
package viewfmt

import (
	"math"
	"strconv"
)

var byteUnits = [...]string{"Bytes", "KB", "MB", "GB"}

// Duration formats a number of seconds as "{H}h {M}m", or "{M}m" when the
// value is under an hour. Negative and NaN inputs are treated as zero.
func Duration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	hours := int64(seconds / 3600)
	minutes := int64(math.Mod(seconds, 3600) / 60)

	if hours > 0 {
		return strconv.FormatInt(hours, 10) + "h " + strconv.FormatInt(minutes, 10) + "m"
	}
	return strconv.FormatInt(minutes, 10) + "m"
}

// Bytes formats a byte count using the largest of Bytes, KB, MB and GB that
// keeps the scaled value under 1024 (GB is the ceiling). The value is
// rounded to two decimals with trailing zeros dropped, so 1536 becomes
// "1.5 KB" and 1048576 becomes "1 MB". A value that rounds up to 1024 moves
// to the next unit, so 1048575 is "1 MB" rather than "1024 KB".
func Bytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	v := float64(n)
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	rounded := math.Round(v*100) / 100
	if rounded >= 1024 && unit < len(byteUnits)-1 {
		rounded = math.Round(rounded/1024*100) / 100
		unit++
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + byteUnits[unit]
}

// Percent formats a share with one decimal place, e.g. "42.5%".
func Percent(p float64) string {
	if math.IsNaN(p) {
		p = 0
	}
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
