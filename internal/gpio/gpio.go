// Package gpio watches the receiver's pulse-per-second output.
// The real implementation uses the Linux GPIO character device with
// rising-edge events. The fake implementation allows testing without
// hardware.
package gpio

// Watcher delivers PPS rising edges to a handler registered at
// construction.
type Watcher interface {
	// Read returns the current raw line level (true = high).
	Read() (bool, error)

	// Edges returns the number of rising edges seen so far.
	Edges() uint64

	// Close stops edge delivery and releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering).
const (
	DefaultChip   = "gpiochip0"
	DefaultPinPPS = 18
)
