package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/raizessolucoes/arco-relay/internal/logging"
	"github.com/raizessolucoes/arco-relay/internal/metrics"
	"github.com/raizessolucoes/arco-relay/internal/tracing"
)

// Response types understood by the platform.
const (
	ResponseInChannel = "in_channel"
	ResponseEphemeral = "ephemeral"
)

// Message is the JSON body posted back to a response URL.
type Message struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// InChannel builds a message visible to the whole channel.
func InChannel(text string) Message {
	return Message{ResponseType: ResponseInChannel, Text: text}
}

// Ephemeral builds a message visible only to the caller.
func Ephemeral(text string) Message {
	return Message{ResponseType: ResponseEphemeral, Text: text}
}

// Responder delivers final dispatch results to caller-supplied response
// URLs. Delivery is best-effort and single-attempt: the URL is single-use
// and short-lived, and there is nobody left to report a failure to, so a
// failed POST is logged and counted, never retried or propagated.
type Responder struct {
	http   *http.Client
	logger *logging.Logger
}

func NewResponder(timeout time.Duration, logger *logging.Logger) *Responder {
	return &Responder{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Deliver posts msg to responseURL. The returned error is informational;
// callers are expected to ignore it.
func (r *Responder) Deliver(ctx context.Context, responseURL string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(body))
	if err != nil {
		r.noteFailure(ctx, responseURL, err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectHTTP(ctx, req.Header)

	resp, err := r.http.Do(req)
	if err != nil {
		r.noteFailure(ctx, responseURL, err)
		return err
	}
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &DeliveryError{Status: resp.StatusCode}
		r.noteFailure(ctx, responseURL, err)
		return err
	}
	return nil
}

func (r *Responder) noteFailure(ctx context.Context, responseURL string, err error) {
	metrics.RecordCallbackFailure()
	tracing.SetSpanError(ctx, err)
	r.logger.WithContext(ctx).WithEndpoint(responseURL).WithError(err).Error("callback delivery failed")
}

// DeliveryError reports a non-2xx status from the callback endpoint.
type DeliveryError struct {
	Status int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("callback returned status %d", e.Status)
}
