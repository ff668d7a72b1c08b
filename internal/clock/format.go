package clock

import "fmt"

// Width is the length of every Format result.
const Width = len("HH:MM:SS:mmm")

// Format renders a normalized time as HH:MM:SS:mmm, zero-padded.
// Out-of-range fields are the caller's bug; Step never produces them.
func Format(hours, minutes, seconds, millis int) string {
	return fmt.Sprintf("%02d:%02d:%02d:%03d", hours, minutes, seconds, millis)
}
