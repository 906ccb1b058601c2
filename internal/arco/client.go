package arco

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/raizessolucoes/arco-relay/internal/config"
	"github.com/raizessolucoes/arco-relay/internal/logging"
	"github.com/raizessolucoes/arco-relay/internal/metrics"
	"github.com/raizessolucoes/arco-relay/internal/tracing"
)

// StatusSuccess is the integration status the token endpoint reports on a
// successful authentication.
const StatusSuccess = "SUCESSO"

// Client performs calls against the ARCO API with bounded retries and
// exponential backoff with jitter. It holds no per-dispatch state, so one
// client serves the authentication call, the query call and health pings.
type Client struct {
	http   *http.Client
	arco   config.Arco
	retry  config.Retry
	logger *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewClient(arcoCfg config.Arco, retryCfg config.Retry, logger *logging.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: retryCfg.AttemptTimeout},
		arco:   arcoCfg,
		retry:  retryCfg,
		logger: logger,
		sleep:  sleepCtx,
	}
}

type tokenEnvelope struct {
	// encoding/json matches keys case-insensitively, which covers both the
	// "statusintegracao" and "statusIntegracao" spellings the remote emits.
	Retorno struct {
		StatusIntegracao string `json:"statusintegracao"`
		Token            string `json:"token"`
		Mensagens        struct {
			Mensagem string `json:"mensagem"`
		} `json:"mensagens"`
	} `json:"retorno"`
}

// Authenticate exchanges the static credential for a short-lived token. The
// token belongs to the calling dispatch and is never cached.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	body, err := c.call(ctx, "token", c.arco.TokenURL, map[string]string{"token": c.arco.StaticToken})
	if err != nil {
		return "", err
	}

	var env tokenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &RejectionError{Message: "resposta inesperada do serviço de autenticação"}
	}
	if !strings.EqualFold(env.Retorno.StatusIntegracao, StatusSuccess) || env.Retorno.Token == "" {
		return "", &RejectionError{Message: env.Retorno.Mensagens.Mensagem}
	}
	return env.Retorno.Token, nil
}

// QueryOrders runs the filter against the order endpoint. The remote returns
// either a plain list of records or an error-shaped envelope; the latter is
// a RejectionError, not something to retry.
func (c *Client) QueryOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	body, err := c.call(ctx, "orders", c.arco.OrdersURL, f)
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := json.Unmarshal(body, &orders); err == nil {
		return orders, nil
	}

	var env tokenEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Retorno.Mensagens.Mensagem != "" {
		return nil, &RejectionError{Message: env.Retorno.Mensagens.Mensagem}
	}
	return nil, &RejectionError{Message: "resposta inesperada do serviço de pedidos"}
}

// Ping checks that the token endpoint answers at all. Used by the health
// handler; a single attempt, no retries.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.arco.TokenURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// call posts payload to url, retrying failed attempts with exponential
// backoff until the attempt budget is spent. Every attempt gets its own
// timeout; a 2xx response wins immediately.
func (c *Client) call(ctx context.Context, endpoint, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "arco.call",
		attribute.String("endpoint", endpoint),
		attribute.Int("max_attempts", c.retry.MaxAttempts),
	)
	defer span.End()

	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := BackoffDelay(attempt-1, c.retry.BackoffBase, c.retry.BackoffCap)
			tracing.AddSpanEvent(ctx, "arco.backoff",
				attribute.Int("attempt", attempt),
				attribute.String("delay", delay.String()),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, &UnavailableError{Attempts: attempt - 1, LastStatus: lastStatus, Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		tracing.InjectHTTP(ctx, req.Header)

		start := time.Now()
		resp, doErr := c.http.Do(req)
		metrics.ObserveRemoteCall(endpoint, time.Since(start).Seconds())

		if doErr != nil {
			lastErr, lastStatus = doErr, 0
		} else {
			respBody, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
				span.SetAttributes(attribute.Int("attempts", attempt))
				return respBody, nil
			}
			lastErr, lastStatus = readErr, resp.StatusCode
		}

		reason := classifyReason(lastErr, lastStatus)
		metrics.RecordRetry(reason)
		tracing.AddSpanEvent(ctx, "arco.attempt_failed",
			attribute.Int("attempt", attempt),
			attribute.String("reason", reason),
			attribute.Int("status", lastStatus),
		)
		c.logger.WithContext(ctx).WithEndpoint(endpoint).WithFields(map[string]any{
			"attempt": attempt,
			"reason":  reason,
			"status":  lastStatus,
		}).Warn("arco call attempt failed")
	}

	uerr := &UnavailableError{Attempts: c.retry.MaxAttempts, LastStatus: lastStatus, Err: lastErr}
	tracing.SetSpanError(ctx, uerr)
	return nil, uerr
}

// BackoffDelay computes the wait after the given failed attempt (1-based):
// min(base * 2^(attempt-1) + uniform(0, 1s), cap).
func BackoffDelay(attempt int, base, cap time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	if d > cap || d < 0 { // shift can overflow for large attempt counts
		return cap
	}
	d += time.Duration(rand.Float64() * float64(time.Second))
	if d > cap {
		return cap
	}
	return d
}

func classifyReason(doErr error, status int) string {
	if doErr != nil {
		errLower := strings.ToLower(doErr.Error())
		if strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline exceeded") {
			return "timeout"
		}
		if strings.Contains(errLower, "connection refused") {
			return "connection_refused"
		}
		if strings.Contains(errLower, "no such host") || strings.Contains(errLower, "dns") {
			return "dns_error"
		}
		return "network"
	}
	if status >= 500 {
		return "http_5xx"
	}
	if status == 429 {
		return "http_429"
	}
	if status >= 400 {
		return "http_4xx"
	}
	return "other"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
