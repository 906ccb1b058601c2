package arco

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raizessolucoes/arco-relay/internal/config"
	"github.com/raizessolucoes/arco-relay/internal/logging"
)

func newTestClient(tokenURL, ordersURL string, maxAttempts int) *Client {
	c := NewClient(
		config.Arco{StaticToken: "static-credential", TokenURL: tokenURL, OrdersURL: ordersURL},
		config.Retry{
			MaxAttempts:    maxAttempts,
			AttemptTimeout: 2 * time.Second,
			BackoffBase:    time.Millisecond,
			BackoffCap:     5 * time.Millisecond,
		},
		logging.New("arco-test"),
	)
	// Skip real backoff sleeps in tests
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		status    int
		wantToken string
		wantMsg   string
		rejected  bool
	}{
		{
			name:      "successful authentication",
			response:  `{"retorno":{"statusintegracao":"SUCESSO","token":"tok-123"}}`,
			status:    http.StatusOK,
			wantToken: "tok-123",
		},
		{
			name:      "alternate status key spelling",
			response:  `{"retorno":{"statusIntegracao":"SUCESSO","token":"tok-456"}}`,
			status:    http.StatusOK,
			wantToken: "tok-456",
		},
		{
			name:     "remote rejects credential",
			response: `{"retorno":{"statusintegracao":"ERRO","mensagens":{"mensagem":"token estatico invalido"}}}`,
			status:   http.StatusOK,
			rejected: true,
			wantMsg:  "token estatico invalido",
		},
		{
			name:     "success status but no token",
			response: `{"retorno":{"statusintegracao":"SUCESSO"}}`,
			status:   http.StatusOK,
			rejected: true,
		},
		{
			name:     "garbage body",
			response: `not json at all`,
			status:   http.StatusOK,
			rejected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL, srv.URL, 5)
			token, err := c.Authenticate(context.Background())

			if tt.rejected {
				var rej *RejectionError
				if !errors.As(err, &rej) {
					t.Fatalf("Authenticate() error = %v, want RejectionError", err)
				}
				if tt.wantMsg != "" && rej.Message != tt.wantMsg {
					t.Errorf("RejectionError.Message = %q, want %q", rej.Message, tt.wantMsg)
				}
				if calls != 1 {
					t.Errorf("remote saw %d calls, want 1 (rejections must not be retried)", calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("Authenticate() = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestCallRetriesUntilSuccess(t *testing.T) {
	tests := []struct {
		name        string
		failFirstN  int
		maxAttempts int
		wantCalls   int
	}{
		{name: "first attempt succeeds", failFirstN: 0, maxAttempts: 5, wantCalls: 1},
		{name: "succeeds on second attempt", failFirstN: 1, maxAttempts: 5, wantCalls: 2},
		{name: "succeeds on final attempt", failFirstN: 4, maxAttempts: 5, wantCalls: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if calls <= tt.failFirstN {
					http.Error(w, "temporary failure", http.StatusInternalServerError)
					return
				}
				_, _ = w.Write([]byte(`{"retorno":{"statusintegracao":"SUCESSO","token":"tok"}}`))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL, srv.URL, tt.maxAttempts)
			if _, err := c.Authenticate(context.Background()); err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if calls != tt.wantCalls {
				t.Errorf("remote saw %d calls, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestCallExhaustsAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "still broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, 3)
	_, err := c.Authenticate(context.Background())

	var unavail *UnavailableError
	if !errors.As(err, &unavail) {
		t.Fatalf("Authenticate() error = %v, want UnavailableError", err)
	}
	if unavail.Attempts != 3 {
		t.Errorf("UnavailableError.Attempts = %d, want 3", unavail.Attempts)
	}
	if unavail.LastStatus != http.StatusBadGateway {
		t.Errorf("UnavailableError.LastStatus = %d, want %d", unavail.LastStatus, http.StatusBadGateway)
	}
	if calls != 3 {
		t.Errorf("remote saw %d calls, want exactly 3", calls)
	}
}

func TestQueryOrders(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantCount int
		rejected  bool
		wantMsg   string
	}{
		{
			name:      "plain order list",
			response:  `[{"Escola":"Escola Alfa","ValorFinalPedido":120.5},{"Escola":"Escola Beta"}]`,
			wantCount: 2,
		},
		{
			name:      "empty list",
			response:  `[]`,
			wantCount: 0,
		},
		{
			name:     "error envelope",
			response: `{"retorno":{"statusintegracao":"ERRO","mensagens":{"mensagem":"token expirado"}}}`,
			rejected: true,
			wantMsg:  "token expirado",
		},
		{
			name:     "unexpected object",
			response: `{"whatever": true}`,
			rejected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL, srv.URL, 3)
			orders, err := c.QueryOrders(context.Background(), OrderFilter{
				Token:             "tok",
				Tipo:              "pedido",
				Marca:             "nave",
				AnoProjeto:        2024,
				DataPedidoInicial: "2024-01-01 00:00:00",
				DataPedidoFinal:   "2024-12-31 23:59:59",
			})

			if tt.rejected {
				var rej *RejectionError
				if !errors.As(err, &rej) {
					t.Fatalf("QueryOrders() error = %v, want RejectionError", err)
				}
				if tt.wantMsg != "" && rej.Message != tt.wantMsg {
					t.Errorf("RejectionError.Message = %q, want %q", rej.Message, tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("QueryOrders() error = %v", err)
			}
			if len(orders) != tt.wantCount {
				t.Errorf("QueryOrders() returned %d orders, want %d", len(orders), tt.wantCount)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	base := time.Second
	cap := 60 * time.Second

	tests := []struct {
		name    string
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{name: "first retry", attempt: 1, min: time.Second, max: 2 * time.Second},
		{name: "second retry", attempt: 2, min: 2 * time.Second, max: 3 * time.Second},
		{name: "fourth retry", attempt: 4, min: 8 * time.Second, max: 9 * time.Second},
		{name: "capped", attempt: 10, min: cap, max: cap},
		{name: "huge attempt stays capped", attempt: 200, min: cap, max: cap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				d := BackoffDelay(tt.attempt, base, cap)
				if d < tt.min || d > tt.max {
					t.Fatalf("BackoffDelay(%d) = %v, want within [%v, %v]", tt.attempt, d, tt.min, tt.max)
				}
			}
		})
	}
}

func TestOrderProjections(t *testing.T) {
	o := Order{
		"Escola":           "Colégio Raízes",
		"ValorFinalPedido": 1234.5,
		"QtdProdutos":      float64(12),
		"DataExpedicao":    nil,
	}

	if got := o.Str("Escola"); got != "Colégio Raízes" {
		t.Errorf(`Str("Escola") = %q`, got)
	}
	if got := o.Str("DataExpedicao"); got != "" {
		t.Errorf(`Str("DataExpedicao") = %q, want ""`, got)
	}
	if got := o.Str("QtdProdutos"); got != "12" {
		t.Errorf(`Str("QtdProdutos") = %q, want "12"`, got)
	}
	if got := o.Num("ValorFinalPedido"); got != 1234.5 {
		t.Errorf(`Num("ValorFinalPedido") = %v, want 1234.5`, got)
	}
	if got := o.Num("ValorFrete"); got != 0 {
		t.Errorf(`Num of missing field = %v, want 0`, got)
	}
}
