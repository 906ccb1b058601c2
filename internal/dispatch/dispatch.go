package dispatch

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"

	"github.com/raizessolucoes/arco-relay/internal/arco"
	"github.com/raizessolucoes/arco-relay/internal/clock"
	"github.com/raizessolucoes/arco-relay/internal/command"
	"github.com/raizessolucoes/arco-relay/internal/logging"
	"github.com/raizessolucoes/arco-relay/internal/metrics"
	"github.com/raizessolucoes/arco-relay/internal/report"
	"github.com/raizessolucoes/arco-relay/internal/slack"
	"github.com/raizessolucoes/arco-relay/internal/tracing"
)

// User-facing failure messages.
const (
	MsgUnexpected  = "⚠️ Ocorreu um erro inesperado ao processar sua consulta. Tente novamente em instantes."
	MsgUnavailable = "⚠️ O serviço ARCO está indisponível no momento. Tente novamente mais tarde."
	MsgUnknown     = "Comando desconhecido. Comandos disponíveis: aging, numero, expedicao, escola."
)

// Dispatcher runs one command end to end: parse, authenticate, query,
// filter, render, deliver. Each dispatch owns its token, payload and result
// set exclusively; nothing is shared across dispatches, so no locking.
type Dispatcher struct {
	client    *arco.Client
	responder *slack.Responder
	defaults  command.Defaults
	clock     clock.Clock
	logger    *logging.Logger
}

func New(client *arco.Client, responder *slack.Responder, defaults command.Defaults, clk clock.Clock, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		client:    client,
		responder: responder,
		defaults:  defaults,
		clock:     clk,
		logger:    logger,
	}
}

// NewID returns a random dispatch identifier for log and trace correlation.
func NewID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

// Run executes one dispatch to completion. It is meant to be called in its
// own goroutine after the synchronous acknowledgment went out; there is no
// cancellation signal and no return channel — the only communication path
// back to the caller is the response URL. Every failure mode, including a
// panic, ends with exactly one callback delivery.
func (d *Dispatcher) Run(ctx context.Context, id, text, responseURL string) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.run",
		attribute.String("dispatch_id", id),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			tracing.SetSpanError(ctx, err)
			d.logger.WithContext(ctx).WithDispatch(id).WithError(err).
				WithField("stack", string(debug.Stack())).
				Error("dispatch panicked")
			metrics.RecordDispatch("failed")
			_ = d.responder.Deliver(ctx, responseURL, slack.Ephemeral(MsgUnexpected))
		}
	}()

	in, err := command.Parse(text, d.clock.Now(), d.defaults)
	if err != nil {
		d.fail(ctx, id, responseURL, "parse", err)
		return
	}
	span.SetAttributes(attribute.String("kind", string(in.Kind)))
	metrics.RecordCommand(string(in.Kind))

	tracing.AddSpanEvent(ctx, "arco.authenticate")
	token, err := d.client.Authenticate(ctx)
	if err != nil {
		d.fail(ctx, id, responseURL, "authenticate", err)
		return
	}

	tracing.AddSpanEvent(ctx, "arco.query")
	orders, err := d.client.QueryOrders(ctx, in.Filter(token))
	if err != nil {
		d.fail(ctx, id, responseURL, "query", err)
		return
	}

	kept := report.Filter(orders, in)
	reply := report.Render(kept, in)
	span.SetAttributes(
		attribute.Int("orders_fetched", len(orders)),
		attribute.Int("orders_kept", len(kept)),
	)

	metrics.RecordDispatch("delivered")
	d.logger.WithContext(ctx).WithDispatch(id).WithKind(string(in.Kind)).WithFields(map[string]any{
		"fetched": len(orders),
		"kept":    len(kept),
	}).Info("dispatch delivered")
	_ = d.responder.Deliver(ctx, responseURL, slack.InChannel(reply))
}

// fail converts a stage error into its user-facing message and delivers it.
// The dispatch still terminates in Delivered: the caller is never left
// without a final message.
func (d *Dispatcher) fail(ctx context.Context, id, responseURL, stage string, err error) {
	tracing.SetSpanError(ctx, err)
	d.logger.WithContext(ctx).WithDispatch(id).WithError(err).
		WithField("stage", stage).
		Error("dispatch failed")
	metrics.RecordDispatch("failed")
	_ = d.responder.Deliver(ctx, responseURL, slack.Ephemeral(UserMessage(err)))
}

// UserMessage maps an internal error onto the text shown to the caller.
func UserMessage(err error) string {
	var uerr *command.UsageError
	if errors.As(err, &uerr) {
		return uerr.Hint
	}
	var derr *command.DateError
	if errors.As(err, &derr) {
		return "⚠️ " + derr.Error()
	}
	if errors.Is(err, command.ErrUnknownCommand) {
		return MsgUnknown
	}
	var rej *arco.RejectionError
	if errors.As(err, &rej) {
		if rej.Message != "" {
			return "⚠️ Consulta recusada pelo serviço ARCO: " + rej.Message
		}
		return "⚠️ Consulta recusada pelo serviço ARCO."
	}
	var unavail *arco.UnavailableError
	if errors.As(err, &unavail) {
		return MsgUnavailable
	}
	return MsgUnexpected
}
