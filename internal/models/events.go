package models

// NoteEvent represents a single sounding note with timing in quarter-note beats
type NoteEvent struct {
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"startBeats"`
	DurationBeats  float64 `json:"durationBeats"`
	Grace          bool    `json:"grace,omitempty"`
}

// EventsResponse is the note-event rendering of a rhythm call
type EventsResponse struct {
	Stream      string         `json:"stream,omitempty"`
	TempoBPM    float64        `json:"tempoBpm"`
	LengthBeats float64        `json:"lengthBeats"`
	Notes       []NoteEvent    `json:"notes"`
	State       map[string]int `json:"state"`
}
