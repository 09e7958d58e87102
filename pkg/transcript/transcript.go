// Package transcript defines the data model for speech-recognition output:
// word-level timestamps with per-word confidence, grouped into
// speaker-attributed segments.
//
// The types here are the input contract for downstream triage and speaker
// identity resolution. Producers (ASR/diarization collaborators) are not
// trusted to deliver well-formed confidence values; consumers clamp via
// [Word.Conf] rather than assuming [0, 1].
package transcript

// Word is a single transcribed word with timing and optional confidence.
//
// Confidence is a pointer so that "no confidence reported" is
// distinguishable from "confidence 0.0". Values outside [0, 1] are
// clamped when read through [Word.Conf].
type Word struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Conf returns the word confidence clamped into [0, 1].
// Missing confidence reads as 0.0; HasConf reports false in that case.
func (w Word) Conf() (conf float64, hasConf bool) {
	if w.Confidence == nil {
		return 0, false
	}
	c := *w.Confidence
	if c < 0 {
		c = 0
	} else if c > 1 {
		c = 1
	}
	return c, true
}

// Duration returns the word duration floored at minDur.
// The floor avoids zero or negative weights in duration-weighted
// aggregation when ASR timestamps overlap or collapse.
func (w Word) Duration(minDur float64) float64 {
	d := w.End - w.Start
	if d < minDur {
		return minDur
	}
	return d
}

// Segment is a contiguous transcribed speech span attributed to one
// local (per-episode) speaker.
type Segment struct {
	Words []Word  `json:"words"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	// Speaker is the per-episode local speaker index assigned by the
	// diarization collaborator. It carries no cross-episode meaning.
	Speaker int `json:"speaker"`

	// Text is the transcribed text, carried for reporting and index
	// provenance only.
	Text string `json:"text,omitempty"`
}

// Duration returns the segment duration in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// WordCount returns the number of words in the segment.
func (s Segment) WordCount() int {
	return len(s.Words)
}

// Utterance is a speech span as consumed by identity resolution.
// It is the same shape as [Segment]; the alias marks intent at call
// sites that operate on speaker identity rather than quality triage.
type Utterance = Segment

// GroupBySpeaker partitions utterances by local speaker id, preserving
// input order within each group.
func GroupBySpeaker(utterances []Utterance) map[int][]Utterance {
	groups := make(map[int][]Utterance)
	for _, u := range utterances {
		groups[u.Speaker] = append(groups[u.Speaker], u)
	}
	return groups
}
