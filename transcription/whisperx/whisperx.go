// Package whisperx implements the recognition and alignment engine
// boundaries against a WhisperX HTTP sidecar. The sidecar owns the models
// and the device; this client only drives it.
package whisperx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/skillsenselab/scribe/transcription"
)

const (
	// ProviderName is the registered name for the WhisperX engine.
	ProviderName = "whisperx"

	defaultBaseURL   = "http://localhost:8390"
	defaultModel     = "large-v3"
	defaultBatchSize = 16
	defaultTimeout   = 300 * time.Second
)

// Config holds configuration for the WhisperX engine client.
type Config struct {
	BaseURL     string        `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Model       string        `json:"model" yaml:"model" mapstructure:"model"`
	Device      string        `json:"device,omitempty" yaml:"device" mapstructure:"device"`
	ComputeType string        `json:"compute_type,omitempty" yaml:"compute_type" mapstructure:"compute_type"`
	BatchSize   int           `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Engine implements transcription.Recognizer and transcription.Aligner
// against the WhisperX sidecar.
type Engine struct {
	cfg    Config
	client *http.Client

	mu             sync.Mutex
	loadedLanguage string
}

// NewEngine creates a new WhisperX engine client.
func NewEngine(cfg Config) *Engine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Engine{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name.
func (e *Engine) Name() string { return ProviderName }

// IsAvailable checks if the WhisperX sidecar is reachable.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// DeviceInfo reports the sidecar's accelerator details for health checks.
func (e *Engine) DeviceInfo(ctx context.Context) (*transcription.DeviceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.BaseURL+"/device", nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisperx device: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisperx device: status %d", resp.StatusCode)
	}

	var info transcription.DeviceInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode device info: %w", err)
	}
	return &info, nil
}

// Transcribe sends audio to the sidecar and returns raw segments plus the
// detected language.
func (e *Engine) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = e.cfg.BatchSize
	}

	fields := map[string]string{
		"model":      e.cfg.Model,
		"batch_size": strconv.Itoa(batchSize),
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}

	var result struct {
		Segments []transcription.Segment `json:"segments"`
		Language string                  `json:"language"`
	}
	if err := e.postAudio(ctx, "/transcribe", req.AudioPath, fields, &result); err != nil {
		return nil, err
	}

	return &transcription.Response{
		Segments: result.Segments,
		Language: result.Language,
	}, nil
}

// Language returns the language of the currently loaded alignment model.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadedLanguage
}

// Load asks the sidecar to load an alignment model for the given language.
// The sidecar discards a model loaded for another language first.
func (e *Engine) Load(ctx context.Context, language string) error {
	body, err := json.Marshal(map[string]string{
		"language": language,
		"device":   e.cfg.Device,
	})
	if err != nil {
		return fmt.Errorf("encode load request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/align/load", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("whisperx load: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whisperx load error (status %d): %s", resp.StatusCode, string(msg))
	}

	e.mu.Lock()
	e.loadedLanguage = language
	e.mu.Unlock()
	return nil
}

// Align sends segments plus audio to the sidecar for timing refinement.
func (e *Engine) Align(ctx context.Context, req transcription.AlignRequest) (*transcription.AlignResponse, error) {
	segments, err := json.Marshal(req.Segments)
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}

	var result struct {
		Segments []transcription.Segment `json:"segments"`
	}
	fields := map[string]string{"segments": string(segments)}
	if err := e.postAudio(ctx, "/align", req.AudioPath, fields, &result); err != nil {
		return nil, err
	}

	return &transcription.AlignResponse{Segments: result.Segments}, nil
}

// postAudio uploads the audio file with extra form fields and decodes the
// JSON response into out.
func (e *Engine) postAudio(ctx context.Context, path, audioPath string, fields map[string]string, out any) error {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return fmt.Errorf("write audio data: %w", err)
	}
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("whisperx request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whisperx error (status %d): %s", resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode whisperx response: %w", err)
	}
	return nil
}
