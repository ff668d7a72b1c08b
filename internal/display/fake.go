package display

// FakeDisplay records everything sent to it for test assertions.
type FakeDisplay struct {
	// Printed contains every Print call in order.
	Printed []string

	// Alignment is the last alignment set.
	Alignment Alignment

	// Alignments records each SetAlignment call.
	Alignments []Alignment

	// Intensity is the last brightness set.
	Intensity int

	// Clears counts Clear calls.
	Clears int

	// PrintError, if set, will be returned by Print.
	PrintError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDisplay creates an empty FakeDisplay.
func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{}
}

// Clear records a clear.
func (f *FakeDisplay) Clear() error {
	f.Clears++
	return nil
}

// SetAlignment records the alignment.
func (f *FakeDisplay) SetAlignment(a Alignment) error {
	f.Alignment = a
	f.Alignments = append(f.Alignments, a)
	return nil
}

// SetIntensity records the brightness.
func (f *FakeDisplay) SetIntensity(level int) error {
	if err := checkIntensity(level); err != nil {
		return err
	}
	f.Intensity = level
	return nil
}

// Print records the text.
func (f *FakeDisplay) Print(text string) error {
	if f.PrintError != nil {
		return f.PrintError
	}
	f.Printed = append(f.Printed, text)
	return nil
}

// Last returns the most recently printed text, or "".
func (f *FakeDisplay) Last() string {
	if len(f.Printed) == 0 {
		return ""
	}
	return f.Printed[len(f.Printed)-1]
}

// Close marks the display as closed.
func (f *FakeDisplay) Close() error {
	f.Closed = true
	return nil
}
