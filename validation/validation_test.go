package validation_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/validation"
)

type submitForm struct {
	CallID      string `json:"call_id" validate:"required,uuid"`
	AudioPath   string `json:"audio_path" validate:"required"`
	CallbackURL string `json:"callback_url" validate:"omitempty,url"`
	MinSpeakers int    `json:"min_speakers" validate:"omitempty,min=1"`
}

func TestValidateStructTags(t *testing.T) {
	tests := []struct {
		name    string
		form    submitForm
		wantErr bool
	}{
		{
			name: "valid",
			form: submitForm{
				CallID:    uuid.New().String(),
				AudioPath: "/audio/call.wav",
			},
			wantErr: false,
		},
		{
			name:    "missing everything",
			form:    submitForm{},
			wantErr: true,
		},
		{
			name: "bad uuid",
			form: submitForm{
				CallID:    "not-a-uuid",
				AudioPath: "/audio/call.wav",
			},
			wantErr: true,
		},
		{
			name: "bad callback url",
			form: submitForm{
				CallID:      uuid.New().String(),
				AudioPath:   "/audio/call.wav",
				CallbackURL: "::not a url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.form)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var appErr *apperrors.AppError
				if !errors.As(err, &appErr) {
					t.Fatalf("Validate() error type = %T, want *AppError", err)
				}
				if appErr.Code != apperrors.ErrCodeInvalidInput {
					t.Errorf("code = %s, want %s", appErr.Code, apperrors.ErrCodeInvalidInput)
				}
			}
		})
	}
}

func TestFluentValidator(t *testing.T) {
	v := validation.New()
	v.Required("audio_path", "").
		Range("min_speakers", 0, 1, 10).
		Custom(2 <= 1, "min_speakers", "must not exceed max_speakers")

	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("Validate() = nil, want error with three field failures")
	}
	if len(v.Errors()) != 3 {
		t.Errorf("Errors() count = %d, want 3", len(v.Errors()))
	}
}

func TestFluentValidatorClean(t *testing.T) {
	v := validation.New()
	v.Required("audio_path", "/audio/a.wav").
		Min("max_speakers", 4, 1).
		OneOf("language", "en", []string{"en", "de", "fr"})

	if appErr := v.Validate(); appErr != nil {
		t.Fatalf("Validate() = %v, want nil", appErr)
	}
}

func TestValidateUUID(t *testing.T) {
	id := uuid.New()
	got, err := validation.ValidateUUID("call_id", id.String())
	if err != nil {
		t.Fatalf("ValidateUUID() error = %v", err)
	}
	if got != id {
		t.Errorf("ValidateUUID() = %s, want %s", got, id)
	}

	if _, err := validation.ValidateUUID("call_id", ""); err == nil {
		t.Error("ValidateUUID(\"\") = nil error, want required failure")
	}
	if _, err := validation.ValidateUUID("call_id", "zzz"); err == nil {
		t.Error("ValidateUUID(invalid) = nil error, want parse failure")
	}
}
