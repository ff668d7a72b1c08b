package gnss

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"
)

// Decoder turns NMEA sentences into Frames, accumulating state across
// sentences the way a receiver-side parser does.
// Not safe for concurrent use.
type Decoder struct {
	last Frame
}

// NewDecoder creates a Decoder with no prior state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses one sentence. ok is false for well-formed sentences that
// carry nothing of interest (GSV, GSA, VTG, ...).
func (d *Decoder) Decode(line string) (frame Frame, ok bool, err error) {
	s, err := nmea.Parse(line)
	if err != nil {
		return Frame{}, false, fmt.Errorf("parse sentence: %w", err)
	}

	switch m := s.(type) {
	case nmea.GGA:
		d.setTime(m.Time)
		d.last.Satellites = int(m.NumSatellites)
	case nmea.RMC:
		d.setTime(m.Time)
		if m.Date.Valid {
			d.setDate(m.Date.DD, m.Date.MM, 2000+m.Date.YY)
		}
	case nmea.ZDA:
		d.setTime(m.Time)
		if m.Day > 0 && m.Month > 0 && m.Year > 0 {
			d.setDate(int(m.Day), int(m.Month), int(m.Year))
		}
	default:
		return Frame{}, false, nil
	}

	d.last.Sentence = s.DataType()
	return d.last, true, nil
}

// Last returns the accumulated state without decoding anything.
func (d *Decoder) Last() Frame {
	return d.last
}

func (d *Decoder) setTime(t nmea.Time) {
	d.last.TimeValid = t.Valid
	if !t.Valid {
		return
	}
	d.last.Hour = t.Hour
	d.last.Minute = t.Minute
	d.last.Second = t.Second
}

func (d *Decoder) setDate(day, month, year int) {
	d.last.DateValid = true
	d.last.Day = day
	d.last.Month = month
	d.last.Year = year
}
