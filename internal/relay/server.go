package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/raizessolucoes/arco-relay/internal/command"
	"github.com/raizessolucoes/arco-relay/internal/config"
	"github.com/raizessolucoes/arco-relay/internal/dispatch"
	"github.com/raizessolucoes/arco-relay/internal/logging"
	"github.com/raizessolucoes/arco-relay/internal/metrics"
	"github.com/raizessolucoes/arco-relay/internal/signature"
	"github.com/raizessolucoes/arco-relay/internal/slack"
	"github.com/raizessolucoes/arco-relay/internal/tracing"
)

// MsgAck is written synchronously before the lookup starts; the real answer
// arrives later through the response URL.
const MsgAck = "⏳ Consultando pedidos, aguarde..."

const msgMissingResponseURL = "⚠️ Requisição sem response_url, impossível responder."

const maxBodyBytes = 1 << 20

// Server terminates the inbound webhook: verify, acknowledge, hand off.
type Server struct {
	slackCfg   config.Slack
	verifier   *signature.Verifier
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger
}

func NewServer(slackCfg config.Slack, verifier *signature.Verifier, dispatcher *dispatch.Dispatcher, logger *logging.Logger) *Server {
	return &Server{
		slackCfg:   slackCfg,
		verifier:   verifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleCommand accepts one slash command. Signature failures get a 401 with
// no detail. Everything else is answered 200 with a JSON message, either a
// synchronous rejection or the acknowledgment, and in the latter case the
// dispatch continues in the background after this handler returns.
func (s *Server) HandleCommand(w http.ResponseWriter, r *http.Request) {
	ctx := tracing.ExtractHTTP(r.Context(), r.Header)
	ctx, span := tracing.StartSpan(ctx, "relay.command")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Verification runs over the raw body, before any parsing of it.
	ts := r.Header.Get(s.slackCfg.TimestampHeader)
	sig := r.Header.Get(s.slackCfg.SignatureHeader)
	if err := s.verifier.Verify(body, ts, sig); err != nil {
		tracing.SetSpanError(ctx, err)
		metrics.RecordDispatch("rejected")
		s.logger.WithContext(ctx).WithError(err).Warn("signature verification failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(form.Get("text"))
	responseURL := form.Get("response_url")

	if responseURL == "" {
		metrics.RecordDispatch("rejected")
		s.logger.WithContext(ctx).Warn("command without response_url")
		writeMessage(w, slack.Ephemeral(msgMissingResponseURL))
		return
	}
	if len(strings.Fields(text)) < 2 {
		metrics.RecordDispatch("rejected")
		writeMessage(w, slack.Ephemeral(command.UsageGeneral))
		return
	}

	id := dispatch.NewID()
	s.logger.WithContext(ctx).WithDispatch(id).WithField("text", text).Info("command accepted")
	writeMessage(w, slack.Ephemeral(MsgAck))

	// The background dispatch must outlive this request.
	go s.dispatcher.Run(context.WithoutCancel(ctx), id, text, responseURL)
}

func writeMessage(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(msg)
}
