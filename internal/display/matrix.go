package display

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MAX7219 registers.
const (
	regDigit0      = 0x01
	regDecodeMode  = 0x09
	regIntensity   = 0x0A
	regScanLimit   = 0x0B
	regShutdown    = 0x0C
	regDisplayTest = 0x0F
)

// DefaultDevices is the number of chained 8x8 modules (64x8 pixels).
const DefaultDevices = 8

// spiSpeed is well under the MAX7219's 10 MHz limit.
const spiSpeed = 1 * physic.MegaHertz

// txer is the part of spi.Conn the matrix needs.
type txer interface {
	Tx(w, r []byte) error
}

// Matrix drives a chain of FC16-style MAX7219 modules. Module 0 is the
// leftmost, which is the far end of the chain, so its register pair is
// shifted out first.
type Matrix struct {
	conn    txer
	closer  func() error
	devices int
	align   Alignment
	text    string
}

// OpenMatrix initializes the host drivers, opens the SPI port by name
// ("" for the first available) and configures the modules.
func OpenMatrix(port string, devices int) (*Matrix, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	c, err := p.Connect(spiSpeed, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("connect spi port %q: %w", port, err)
	}
	m, err := NewMatrix(c, devices)
	if err != nil {
		p.Close()
		return nil, err
	}
	m.closer = p.Close
	return m, nil
}

// NewMatrix configures the modules behind an open connection: no BCD
// decode, all eight rows scanned, display test off, lowest brightness,
// blank, powered on.
func NewMatrix(conn txer, devices int) (*Matrix, error) {
	if devices <= 0 {
		devices = DefaultDevices
	}
	m := &Matrix{conn: conn, devices: devices}

	setup := []struct{ reg, val byte }{
		{regShutdown, 0x00},
		{regDisplayTest, 0x00},
		{regDecodeMode, 0x00},
		{regScanLimit, 0x07},
		{regIntensity, 0x00},
	}
	for _, r := range setup {
		if err := m.writeAll(r.reg, r.val); err != nil {
			return nil, fmt.Errorf("init max7219: %w", err)
		}
	}
	if err := m.Clear(); err != nil {
		return nil, fmt.Errorf("init max7219: %w", err)
	}
	if err := m.writeAll(regShutdown, 0x01); err != nil {
		return nil, fmt.Errorf("init max7219: %w", err)
	}
	return m, nil
}

// Width returns the display width in columns.
func (m *Matrix) Width() int {
	return m.devices * 8
}

// Clear blanks every row.
func (m *Matrix) Clear() error {
	m.text = ""
	return m.draw(make([]byte, m.Width()))
}

// SetAlignment applies to subsequent Print calls.
func (m *Matrix) SetAlignment(a Alignment) error {
	m.align = a
	return nil
}

// SetIntensity sets brightness on every module.
func (m *Matrix) SetIntensity(level int) error {
	if err := checkIntensity(level); err != nil {
		return err
	}
	return m.writeAll(regIntensity, byte(level))
}

// Print renders text. Repeating the current text is a no-op.
func (m *Matrix) Print(text string) error {
	if text == m.text {
		return nil
	}
	if err := m.draw(Render(text, m.Width(), m.align)); err != nil {
		return err
	}
	m.text = text
	return nil
}

// Close blanks the modules, shuts them down and releases the port.
func (m *Matrix) Close() error {
	var errs []error
	if err := m.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear: %w", err))
	}
	if err := m.writeAll(regShutdown, 0x00); err != nil {
		errs = append(errs, fmt.Errorf("shutdown: %w", err))
	}
	if m.closer != nil {
		if err := m.closer(); err != nil {
			errs = append(errs, fmt.Errorf("close spi port: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// draw sends one frame per row. Within a module, bit 7 is the leftmost
// column.
func (m *Matrix) draw(cols []byte) error {
	for row := 0; row < 8; row++ {
		frame := make([]byte, 0, 2*m.devices)
		for dev := 0; dev < m.devices; dev++ {
			var b byte
			for k := 0; k < 8; k++ {
				if cols[dev*8+k]&(1<<row) != 0 {
					b |= 0x80 >> k
				}
			}
			frame = append(frame, byte(regDigit0+row), b)
		}
		if err := m.conn.Tx(frame, nil); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	return nil
}

// writeAll sets the same register on every module.
func (m *Matrix) writeAll(reg, val byte) error {
	frame := make([]byte, 0, 2*m.devices)
	for i := 0; i < m.devices; i++ {
		frame = append(frame, reg, val)
	}
	return m.conn.Tx(frame, nil)
}
