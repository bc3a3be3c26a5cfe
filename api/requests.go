package api

import (
	"github.com/google/uuid"

	"github.com/skillsenselab/scribe/scribe"
	"github.com/skillsenselab/scribe/validation"
)

// SubmitRequest is the body of POST /transcribe.
//
// The boolean options default to enabled when omitted, so they are pointers:
// a missing field and an explicit false must be distinguishable.
type SubmitRequest struct {
	CallID           string `json:"call_id" validate:"required,uuid"`
	AudioPath        string `json:"audio_path" validate:"required"`
	Language         string `json:"language" validate:"omitempty,max=8"`
	Diarize          *bool  `json:"diarize"`
	MinSpeakers      int    `json:"min_speakers" validate:"omitempty,min=1,max=32"`
	MaxSpeakers      int    `json:"max_speakers" validate:"omitempty,min=1,max=32"`
	VAD              *bool  `json:"vad"`
	WordTimestamps   *bool  `json:"word_timestamps"`
	ReturnConfidence *bool  `json:"return_confidence"`
	MaxDuration      int    `json:"max_duration" validate:"omitempty,min=1"`
	Priority         int    `json:"priority" validate:"omitempty,min=0,max=10"`
	CallbackURL      string `json:"callback_url" validate:"omitempty,url"`
}

// Validate runs tag validation plus the cross-field speaker bound check.
func (r *SubmitRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	v := validation.New()
	if r.MinSpeakers > 0 && r.MaxSpeakers > 0 {
		v.Custom(r.MinSpeakers <= r.MaxSpeakers, "min_speakers", "must not exceed max_speakers")
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Options converts the request into job options, applying defaults for
// omitted fields.
func (r *SubmitRequest) Options() scribe.Options {
	opts := scribe.DefaultOptions()
	opts.Language = r.Language
	opts.MinSpeakers = r.MinSpeakers
	opts.MaxSpeakers = r.MaxSpeakers
	opts.MaxDuration = r.MaxDuration
	if r.Diarize != nil {
		opts.Diarize = *r.Diarize
	}
	if r.VAD != nil {
		opts.VAD = *r.VAD
	}
	if r.WordTimestamps != nil {
		opts.WordTimestamps = *r.WordTimestamps
	}
	if r.ReturnConfidence != nil {
		opts.ReturnConfidence = *r.ReturnConfidence
	}
	return opts
}

// SubmitResponse acknowledges an accepted job. QueuePosition is the job's
// place in the FIFO queue at admission time.
type SubmitResponse struct {
	RequestID     uuid.UUID `json:"request_id"`
	CallID        uuid.UUID `json:"call_id"`
	Status        string    `json:"status"`
	QueuePosition int       `json:"queue_position"`
}

// StatusResponse reports a job's lifecycle state.
type StatusResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
}
