package scribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/skillsenselab/scribe/logger"
)

// Dispatcher posts job results to callback URLs. Delivery is best effort
// and fire-and-forget: a failed post is logged and never retried, and
// delivery never affects the stored result.
type Dispatcher struct {
	client  *http.Client
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewDispatcher returns a dispatcher with the given per-delivery timeout.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     logger.WithComponent("webhook"),
	}
}

// Dispatch posts the result to url in the background.
func (d *Dispatcher) Dispatch(url string, res *Result) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.post(url, res); err != nil {
			d.log.Warn("webhook delivery failed", logger.Fields(
				"url", url,
				logger.FieldJobID, res.RequestID.String(),
				logger.FieldError, err.Error(),
			))
			return
		}
		d.log.Debug("webhook delivered", logger.Fields(
			"url", url,
			logger.FieldJobID, res.RequestID.String(),
		))
	}()
}

// Wait blocks until all in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) post(url string, res *Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
