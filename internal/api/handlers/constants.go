package handlers

const (
	// Response headers carrying the cursor of binary responses
	headerNextAttack  = "X-Talea-Next-Attack"
	headerNextSegment = "X-Talea-Next-Segment"

	midiContentType = "audio/midi"
	midiFilename    = "talea.mid"

	// Upper bound on accepted DSL bodies
	maxDSLBytes = 1 << 20
)
