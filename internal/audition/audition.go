package audition

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"sort"

	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	TicksPerQuarter = 960
	ticksPerWhole   = 4 * TicksPerQuarter

	// MiddleC is the MIDI key of pitch 0
	MiddleC = 60

	defaultTempoBPM = 120
	defaultVelocity = 96
)

// graceLength is the time each grace note steals from the note it decorates
var graceLength = big.NewRat(1, 32)

// Options controls rendering. Zero values select the defaults
type Options struct {
	TempoBPM float64
	Channel  uint8
	Velocity uint8
}

func (o Options) withDefaults() Options {
	if o.TempoBPM <= 0 {
		o.TempoBPM = defaultTempoBPM
	}
	if o.Velocity == 0 {
		o.Velocity = defaultVelocity
	}
	if o.Channel > 15 {
		o.Channel = 15
	}
	return o
}

// Event is one sounding note in ticks
type Event struct {
	Key      uint8
	Velocity uint8
	Start    int64
	Duration int64
	Grace    bool
}

// Render lays the selections end to end and returns their notes in onset order
// together with the total length in ticks. Tied leaves sound as one note, also when
// the tie crosses into the next logical tie or selection. Rests and skips only
// advance time
func Render(selections []*rhythm.Selection, opts Options) ([]Event, int64) {
	opts = opts.withDefaults()

	var events []Event
	pos := new(big.Rat)
	// held is the index of the note event the previous tie is tied into, or -1
	held := -1
	for _, sel := range selections {
		prolation := big.NewRat(1, 1)
		if sel.Tuplet != nil {
			prolation.Set(sel.Tuplet.Multiplier)
		}
		for _, tie := range sel.Run.Ties {
			length := new(big.Rat).Mul(tie.Duration(), prolation)
			end := new(big.Rat).Add(pos, length)

			switch {
			case tie.Kind() != rhythm.NoteLeaf:
				held = -1
			case held >= 0 && tie.Grace == nil && events[held].Key == Key(tie.Head().Pitch):
				events[held].Duration = toTicks(end) - events[held].Start
			default:
				onset := new(big.Rat).Set(pos)
				if tie.Grace != nil && len(tie.Grace.Leaves) > 0 {
					onset = renderGraces(&events, tie.Grace, pos, length, opts)
				}
				events = append(events, noteEvent(tie.Head().Pitch, onset, end, opts.Velocity, false))
				held = len(events) - 1
			}
			if tie.Kind() == rhythm.NoteLeaf && !tie.Tail().TieToNext {
				held = -1
			}
			pos = end
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
	return events, toTicks(pos)
}

// renderGraces emits the grace notes at pos and returns the delayed onset of the main
// note. Graces never take more than half of length
func renderGraces(events *[]Event, grace *rhythm.GraceGroup, pos, length *big.Rat, opts Options) *big.Rat {
	n := int64(len(grace.Leaves))
	step := new(big.Rat).Set(graceLength)
	limit := new(big.Rat).Quo(length, big.NewRat(2*n, 1))
	if step.Cmp(limit) > 0 {
		step = limit
	}

	at := new(big.Rat).Set(pos)
	for _, leaf := range grace.Leaves {
		next := new(big.Rat).Add(at, step)
		if leaf.Kind == rhythm.NoteLeaf {
			*events = append(*events, noteEvent(leaf.Pitch, at, next, opts.Velocity, true))
		}
		at = next
	}
	return at
}

func noteEvent(pitch float64, start, end *big.Rat, velocity uint8, grace bool) Event {
	s, e := toTicks(start), toTicks(end)
	return Event{
		Key:      Key(pitch),
		Velocity: velocity,
		Start:    s,
		Duration: e - s,
		Grace:    grace,
	}
}

// Key maps a pitch number (0 is middle C, fractions are microtones) to the nearest
// MIDI key
func Key(pitch float64) uint8 {
	k := MiddleC + int(math.Round(pitch))
	switch {
	case k < 0:
		return 0
	case k > 127:
		return 127
	default:
		return uint8(k)
	}
}

// toTicks converts a whole-note duration to ticks, rounding half away from zero
func toTicks(d *big.Rat) int64 {
	scaled := new(big.Rat).Mul(d, big.NewRat(ticksPerWhole, 1))
	num := new(big.Int).Mul(scaled.Num(), big.NewInt(2))
	num.Add(num, scaled.Denom())
	den := new(big.Int).Mul(scaled.Denom(), big.NewInt(2))
	return new(big.Int).Div(num, den).Int64()
}

// NoteEvents converts rendered events to beat-based JSON events
func NoteEvents(events []Event) []models.NoteEvent {
	out := make([]models.NoteEvent, 0, len(events))
	for _, e := range events {
		out = append(out, models.NoteEvent{
			MidiNoteNumber: int(e.Key),
			Velocity:       int(e.Velocity),
			StartBeats:     Beats(e.Start),
			DurationBeats:  Beats(e.Duration),
			Grace:          e.Grace,
		})
	}
	return out
}

// Beats converts ticks to quarter-note beats
func Beats(ticks int64) float64 {
	return float64(ticks) / TicksPerQuarter
}

type message struct {
	tick int64
	off  bool
	msg  midi.Message
}

// WriteSMF renders the selections as a single-track Standard MIDI File
func WriteSMF(w io.Writer, selections []*rhythm.Selection, opts Options) error {
	opts = opts.withDefaults()
	events, length := Render(selections, opts)

	msgs := make([]message, 0, 2*len(events))
	for _, e := range events {
		if e.Duration <= 0 {
			continue
		}
		msgs = append(msgs,
			message{tick: e.Start, msg: midi.NoteOn(opts.Channel, e.Key, e.Velocity)},
			message{tick: e.Start + e.Duration, off: true, msg: midi.NoteOff(opts.Channel, e.Key)},
		)
	}
	// Note-offs sort before note-ons on the same tick so repeated keys retrigger
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("talea"))
	tr.Add(0, smf.MetaTempo(opts.TempoBPM))

	var last int64
	for _, m := range msgs {
		tr.Add(uint32(m.tick-last), m.msg)
		last = m.tick
	}
	if length < last {
		length = last
	}
	tr.Close(uint32(length - last))

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write midi file: %w", err)
	}
	return nil
}
