package auth

import (
	"fmt"
	"time"
)

// FormatDuration formats d as HH:MM:SS, truncated to the second.
// Each field has at least two digits and hours are not bounded.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}
