// Package timefmt formats media positions for display.
package timefmt

import (
	"fmt"
	"math"
)

// Format renders seconds as M:SS, or H:MM:SS from one hour on.
// Negative, NaN and infinite values render as 0:00.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Pair renders "current / total".
func Pair(current, total float64) string {
	return Format(current) + " / " + Format(total)
}
