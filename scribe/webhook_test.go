package scribe

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDispatcherDeliversResult(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(5 * time.Second)
	res := &Result{
		RequestID: uuid.New(),
		CallID:    uuid.New(),
		Status:    StatusCompleted,
		Text:      "hello",
	}
	d.Dispatch(srv.URL, res)
	d.Wait()

	select {
	case body := <-received:
		var got Result
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("callback body not valid JSON: %v", err)
		}
		if got.RequestID != res.RequestID {
			t.Errorf("RequestID = %s, want %s", got.RequestID, res.RequestID)
		}
		if got.Text != "hello" {
			t.Errorf("Text = %q, want hello", got.Text)
		}
	default:
		t.Fatal("callback endpoint never invoked")
	}
}

func TestDispatcherToleratesFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(5 * time.Second)
	d.Dispatch(srv.URL, &Result{RequestID: uuid.New(), Status: StatusFailed})
	d.Wait()

	// Delivery is fire-and-forget: a 500 is logged once, never retried.
	if n := hits.Load(); n != 1 {
		t.Errorf("callback attempts = %d, want 1", n)
	}

	// An unreachable URL must not panic or block Wait.
	d.Dispatch("http://127.0.0.1:1/nope", &Result{RequestID: uuid.New()})
	d.Wait()
}
