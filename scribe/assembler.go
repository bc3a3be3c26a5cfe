package scribe

import (
	"strings"
	"time"

	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/transcription"
)

const unknownSpeaker = "UNKNOWN"

// Assembler merges recognition, alignment and diarization output into the
// final client-facing result.
type Assembler struct{}

// NewAssembler returns an assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the completed result for a job. tr carries the (possibly
// aligned) recognition segments; di is nil when diarization was disabled or
// not configured. The result is always fully populated; absent values stay
// nil rather than zero.
func (a *Assembler) Assemble(job *Job, tr *transcription.Response, di *diarization.Response, processingMS int64) *Result {
	segments := make([]transcription.Segment, len(tr.Segments))
	copy(segments, tr.Segments)

	if di != nil {
		assignSpeakers(segments, di.Segments)
	}

	for i := range segments {
		segments[i].ID = i
		if segments[i].Confidence == nil {
			segments[i].Confidence = meanWordConfidence(segments[i].Words)
		}
	}

	res := &Result{
		RequestID:        job.ID,
		CallID:           job.CallID,
		Status:           StatusCompleted,
		Text:             assembleText(segments, anySpeaker(segments)),
		Language:         tr.Language,
		Confidence:       overallConfidence(segments),
		ProcessingTimeMS: processingMS,
		Segments:         segments,
		Words:            flattenWords(segments),
		CompletedAt:      time.Now().UTC(),
	}

	if di != nil {
		res.SpeakerSegments = di.Segments
		n := di.NumSpeakers
		if n == 0 {
			n = countSpeakers(di.Segments)
		}
		res.SpeakerCount = &n
	} else if strings.TrimSpace(res.Text) != "" {
		one := 1
		res.SpeakerCount = &one
	}

	return res
}

// assignSpeakers labels each segment and word with the diarization speaker
// whose turn overlaps it the most. Items with no overlap stay unlabelled.
func assignSpeakers(segments []transcription.Segment, turns []diarization.Segment) {
	for i := range segments {
		segments[i].Speaker = dominantSpeaker(segments[i].Start, segments[i].End, turns)
		for j := range segments[i].Words {
			w := &segments[i].Words[j]
			w.Speaker = dominantSpeaker(w.Start, w.End, turns)
			if w.Speaker == "" {
				w.Speaker = segments[i].Speaker
			}
		}
	}
}

func dominantSpeaker(start, end float64, turns []diarization.Segment) string {
	best := ""
	bestOverlap := 0.0
	for _, t := range turns {
		o := overlap(start, end, t.Start, t.End)
		if o > bestOverlap {
			bestOverlap = o
			best = t.Speaker
		}
	}
	return best
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// anySpeaker reports whether at least one segment carries a speaker label.
func anySpeaker(segments []transcription.Segment) bool {
	for _, seg := range segments {
		if seg.Speaker != "" {
			return true
		}
	}
	return false
}

// assembleText renders the transcript. When any segment carries a speaker
// label, each non-empty segment becomes a "{speaker}: {text}" line, with
// UNKNOWN standing in for the unlabelled ones; otherwise the trimmed
// segment texts are joined with single spaces.
func assembleText(segments []transcription.Segment, labelled bool) string {
	if labelled {
		lines := make([]string, 0, len(segments))
		for _, seg := range segments {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			speaker := seg.Speaker
			if speaker == "" {
				speaker = unknownSpeaker
			}
			lines = append(lines, speaker+": "+text)
		}
		return strings.Join(lines, "\n")
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// meanWordConfidence averages the word scores of a segment. Segments whose
// words carry no scores yield nil rather than zero.
func meanWordConfidence(words []transcription.Word) *float64 {
	sum := 0.0
	n := 0
	for _, w := range words {
		if w.Confidence == nil {
			continue
		}
		sum += *w.Confidence
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// overallConfidence averages all word scores across segments.
func overallConfidence(segments []transcription.Segment) *float64 {
	sum := 0.0
	n := 0
	for _, seg := range segments {
		for _, w := range seg.Words {
			if w.Confidence == nil {
				continue
			}
			sum += *w.Confidence
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

func flattenWords(segments []transcription.Segment) []transcription.Word {
	var words []transcription.Word
	for _, seg := range segments {
		words = append(words, seg.Words...)
	}
	return words
}

func countSpeakers(turns []diarization.Segment) int {
	seen := make(map[string]struct{})
	for _, t := range turns {
		seen[t.Speaker] = struct{}{}
	}
	return len(seen)
}

// AudioDuration reports the transcribed audio length in seconds, taken from
// the end of the last segment.
func AudioDuration(segments []transcription.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}
