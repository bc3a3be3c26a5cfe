package transcription

// Word is a timed token with an optional alignment score and speaker label.
type Word struct {
	// Word is the token text.
	Word string `json:"word"`
	// Start is the word start time in seconds.
	Start float64 `json:"start"`
	// End is the word end time in seconds.
	End float64 `json:"end"`
	// Confidence is the alignment score, nil when the engine produced none.
	Confidence *float64 `json:"confidence,omitempty"`
	// Speaker is the assigned speaker label, empty until diarization runs.
	Speaker string `json:"speaker,omitempty"`
}

// Segment represents a timed span of recognized speech.
type Segment struct {
	// ID is the zero-based sequential segment identifier.
	ID int `json:"id"`
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
	// Confidence is the segment-level score, nil when unknown.
	Confidence *float64 `json:"confidence,omitempty"`
	// Speaker is the assigned speaker label, empty until diarization runs.
	Speaker string `json:"speaker,omitempty"`
	// Words contains word-level timing when alignment produced it.
	Words []Word `json:"words,omitempty"`
}

// Request holds parameters for a recognition call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// BatchSize is the engine batch size for inference.
	BatchSize int `json:"batch_size,omitempty"`
	// Language is the expected language of the audio (e.g. "en").
	// Empty means auto-detect.
	Language string `json:"language,omitempty"`
}

// Response holds the result of a recognition call.
type Response struct {
	// Segments contains the raw time-stamped transcript segments.
	Segments []Segment `json:"segments"`
	// Language is the detected or declared language.
	Language string `json:"language,omitempty"`
}

// AlignRequest holds parameters for a timing-refinement call.
type AlignRequest struct {
	// AudioPath is the path to the audio the segments came from.
	AudioPath string `json:"audio_path"`
	// Segments are the raw recognition segments to refine.
	Segments []Segment `json:"segments"`
}

// AlignResponse holds refined segments. When present, its timing supersedes
// the raw recognition timing.
type AlignResponse struct {
	Segments []Segment `json:"segments"`
}
