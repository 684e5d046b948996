package dsl

// GetRhythmDSLGrammar returns the Lark grammar for the rhythm-maker DSL
func GetRhythmDSLGrammar() string {
	return `
// Rhythm DSL Grammar - talea rhythm-maker configuration and input
// SYNTAX:
//   talea(counts="1 1 2", denominator=16);
//   treatments(values="0 accel 3:2 x3/2 3/16");
//   acciaccatura(durations="1/16", indices="0", period=2);
//   beam(each=true, together=false, rests=false);
//   mask(target=division, kind=silence, indices="1", period=3);
//   spelling(decrease=true);
//   policy(run_out=true, stop_at_cycle=true);
//   state(next_attack=2);
//   stream(name="violin-1");
//   segment(pitches="0 2 10"); segment(pitches="18 r 3/2:skip 2:r")
//
// SEGMENT TOKENS:
//   number   = pitch (0 is middle C, fractional values are microtones)
//   r        = rest drawn from the talea
//   m:r      = rest lasting m talea units, outside the talea
//   m:skip   = skip lasting m talea units, outside the talea
//
// TREATMENT TOKENS:
//   integer  = extra (or missing) counts
//   p:q      = ratio
//   xm       = multiplier
//   n/d      = target duration
//   accel, rit

// ---------- Start rule ----------
start: call (";" SP? call)* ";"?

call: talea_call
    | treatments_call
    | acciaccatura_call
    | beam_call
    | mask_call
    | spelling_call
    | policy_call
    | state_call
    | stream_call
    | segment_call

// ---------- Talea ----------
talea_call: "talea" "(" talea_param ("," SP talea_param)* ")"
talea_param: "counts" "=" STRING
           | "denominator" "=" NUMBER

// ---------- Time treatments ----------
treatments_call: "treatments" "(" "values" "=" STRING ")"

// ---------- Acciaccatura ----------
acciaccatura_call: "acciaccatura" "(" acciaccatura_param ("," SP acciaccatura_param)* ")"
acciaccatura_param: "durations" "=" STRING
                  | "indices" "=" STRING
                  | "period" "=" NUMBER
                  | "inverted" "=" BOOLEAN
                  | "left" "=" NUMBER
                  | "right" "=" NUMBER
                  | "left_counts" "=" STRING
                  | "middle_counts" "=" STRING
                  | "right_counts" "=" STRING

// ---------- Beams ----------
beam_call: "beam" "(" beam_param ("," SP beam_param)* ")"
beam_param: "each" "=" BOOLEAN
          | "together" "=" BOOLEAN
          | "rests" "=" BOOLEAN

// ---------- Masks ----------
mask_call: "mask" "(" mask_param ("," SP mask_param)* ")"
mask_param: "target" "=" MASK_TARGET
          | "kind" "=" MASK_KIND
          | "indices" "=" STRING
          | "period" "=" NUMBER
          | "inverted" "=" BOOLEAN

// ---------- Spelling and expansion ----------
spelling_call: "spelling" "(" spelling_param ("," SP spelling_param)* ")"
spelling_param: "decrease" "=" BOOLEAN
              | "rewrite_meter" "=" BOOLEAN

policy_call: "policy" "(" policy_param ("," SP policy_param)* ")"
policy_param: "run_out" "=" BOOLEAN
            | "stop_at_cycle" "=" BOOLEAN

// ---------- Cursor ----------
state_call: "state" "(" state_param ("," SP state_param)* ")"
state_param: "next_attack" "=" NUMBER
           | "next_segment" "=" NUMBER

stream_call: "stream" "(" "name" "=" STRING ")"

// ---------- Segments ----------
segment_call: "segment" "(" "pitches" "=" STRING ")"

// ---------- Terminals ----------
MASK_TARGET: "division" | "tie"
MASK_KIND: "silence" | "sustain"
SP: " "+
STRING: /"[^"]*"/
NUMBER: /-?\d+(\.\d+)?/
BOOLEAN: "true" | "false"
`
}
