package clock

// Propagate applies carry propagation in the order seconds, minutes,
// hours, then full-day wraparound. Each step handles a single overflow,
// which is all one loop iteration can produce. Any carry zeroes the
// milliseconds. The date is not advanced on wraparound.
func Propagate(t Time) Time {
	if t.Seconds > 59 {
		t.Seconds = 0
		t.Minutes++
		t.Millis = 0
	}
	if t.Minutes > 59 {
		t.Minutes = 0
		t.Hours++
		t.Millis = 0
	}
	if t.Hours > 23 {
		t.Hours = 0
		t.Minutes = 0
		t.Seconds = 0
		t.Millis = 0
	}
	return t
}

// Valid reports whether every field is within its display range.
func (t Time) Valid() bool {
	return t.Hours >= 0 && t.Hours <= 23 &&
		t.Minutes >= 0 && t.Minutes <= 59 &&
		t.Seconds >= 0 && t.Seconds <= 59 &&
		t.Millis >= 0 && t.Millis <= 999
}
