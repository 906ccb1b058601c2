package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/raizessolucoes/arco-relay/internal/config"
)

var (
	failFirstN    = 0
	responseDelay = 0 * time.Millisecond
	staticToken   = "local-dev-credential"
	reqCount      = 0
	issuedToken   = ""
)

// fixtures loosely mirror what the real order service returns.
var fixtures = []map[string]any{
	{
		"PedidoOrigem": "PED-1001", "Escola": "Colégio Raízes", "Cidade": "Campinas", "Uf": "SP",
		"Produtos": "Kit Didático 5º Ano", "QtdProdutos": 32, "ValorFinalPedido": 1530.40,
		"StatusPedido": "Em Trânsito", "DataPedido": "2024-06-10", "DataExpedicao": "2024-06-12",
		"Transportadora": "Rápido Sul", "PrevisaoEntrega": "2024-06-20",
		"Email": "compras@raizes.example", "Telefone": "(11) 4002-8922",
	},
	{
		"PedidoOrigem": "PED-1002", "Escola": "Escola Horizonte", "Cidade": "Sorocaba", "Uf": "SP",
		"Produtos": "Agenda Escolar", "QtdProdutos": 120, "ValorFinalPedido": 220.00,
		"StatusPedido": "Cancelado", "DataPedido": "2024-06-11",
		"MotivoCancelamento": "pagamento não confirmado",
	},
	{
		"PedidoOrigem": "PED-1003", "Escola": "Instituto Aurora", "Cidade": "Curitiba", "Uf": "PR",
		"Produtos": "Coleção Ensino Médio", "QtdProdutos": 18, "ValorFinalPedido": 874.90,
		"StatusPedido": "Entregue", "DataPedido": "2024-06-01", "DataEntrega": "2024-06-08",
		"Transportadora": "Expresso Norte", "DataExpedicao": "2024-06-05",
	},
	{
		"PedidoOrigem": "PED-1004", "Escola": "Colégio Raízes", "Cidade": "Campinas", "Uf": "SP",
		"Produtos": "Material Complementar", "QtdProdutos": 8, "ValorFinalPedido": 99.90,
		"StatusPedido": "Aprovado", "DataPedido": "2024-06-14",
	},
}

func main() {
	cfg := config.FromEnv()
	failFirstN = cfg.FakeArco.FailFirstN
	responseDelay = time.Duration(cfg.FakeArco.ResponseDelayMS) * time.Millisecond
	if cfg.Arco.StaticToken != "" {
		staticToken = cfg.Arco.StaticToken
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) })
	mux.HandleFunc("/arco/gerartoken", handleToken)
	mux.HandleFunc("/arco/pedidos", handleOrders)

	srv := &http.Server{
		Addr:         cfg.FakeArco.Port,
		Handler:      mux,
		ReadTimeout:  cfg.FakeArco.ReadTimeout,
		WriteTimeout: cfg.FakeArco.WriteTimeout,
		IdleTimeout:  cfg.FakeArco.IdleTimeout,
	}
	log.Printf("fake-arco listening on %s", cfg.FakeArco.Port)
	log.Fatal(srv.ListenAndServe())
}

// flaky simulates a slow or initially failing upstream. Returns true when the
// request was already answered with an error.
func flaky(w http.ResponseWriter, path string) bool {
	reqCount++
	if responseDelay > 0 {
		time.Sleep(responseDelay)
	}
	if reqCount <= failFirstN {
		log.Printf("FAILING (%d/%d) %s", reqCount, failFirstN, path)
		http.Error(w, "temporary failure", http.StatusInternalServerError)
		return true
	}
	return false
}

func handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	if flaky(w, r.URL.Path) {
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token != staticToken {
		log.Printf("fake-arco rejected credential %q", req.Token)
		writeJSON(w, envelope("ERRO", "", "token estático inválido"))
		return
	}
	issuedToken = newToken()
	log.Printf("fake-arco issued token %s", issuedToken)
	writeJSON(w, envelope("SUCESSO", issuedToken, ""))
}

func handleOrders(w http.ResponseWriter, r *http.Request) {
	if flaky(w, r.URL.Path) {
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" || req.Token != issuedToken {
		log.Printf("fake-arco rejected query token %q", req.Token)
		writeJSON(w, envelope("ERRO", "", "token de consulta inválido ou expirado"))
		return
	}
	log.Printf("fake-arco returning %d orders", len(fixtures))
	writeJSON(w, fixtures)
}

func envelope(status, token, msg string) map[string]any {
	ret := map[string]any{"statusintegracao": status}
	if token != "" {
		ret["token"] = token
	}
	if msg != "" {
		ret["mensagens"] = map[string]any{"mensagem": msg}
	}
	return map[string]any{"retorno": ret}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "tok-fallback"
	}
	return hex.EncodeToString(b)
}
