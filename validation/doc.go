// Package validation provides input validation for scribe API handlers.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for request DTOs; the fluent validator covers cross-field
// rules that tags cannot express.
//
// # Struct Tag Validation
//
//	type SubmitRequest struct {
//	    CallID    string `validate:"required,uuid"`
//	    AudioPath string `validate:"required"`
//	}
//	err := validation.Validate(req)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Custom(req.MinSpeakers <= req.MaxSpeakers, "min_speakers", "must not exceed max_speakers")
//	err := v.Validate()
package validation
