package report

import (
	"fmt"
	"strings"

	"github.com/raizessolucoes/arco-relay/internal/arco"
	"github.com/raizessolucoes/arco-relay/internal/command"
)

// maxDisplay caps how many records one reply renders.
const maxDisplay = 5

// NoResults is the fixed reply for an empty (post-filter) result set. An
// empty set is a normal outcome, never an error.
const NoResults = "Nenhum pedido encontrado."

const header = "*📦 Resultados encontrados:*\n"

const missing = "—"

// Filter applies the post-fetch filters the remote API cannot do
// server-side: exact order-number match for numero, case-insensitive school
// substring for escola. Other kinds pass through, the server-side date
// filter already did the work. Keeping this separate from query construction
// keeps the widened-window tradeoff visible.
func Filter(orders []arco.Order, in command.Intent) []arco.Order {
	switch in.Kind {
	case command.KindNumber:
		var kept []arco.Order
		for _, o := range orders {
			if o.Str("PedidoOrigem") == in.OrderNumber {
				kept = append(kept, o)
			}
		}
		return kept
	case command.KindSchool:
		needle := strings.ToLower(in.School)
		var kept []arco.Order
		for _, o := range orders {
			if strings.Contains(strings.ToLower(o.Str("Escola")), needle) {
				kept = append(kept, o)
			}
		}
		return kept
	default:
		return orders
	}
}

// Render produces the reply text for an already-filtered record list. It is
// pure: the same input always renders the same text.
func Render(orders []arco.Order, in command.Intent) string {
	if len(orders) == 0 {
		return NoResults
	}

	var b strings.Builder
	b.WriteString(header)

	shown := orders
	if len(shown) > maxDisplay {
		shown = shown[:maxDisplay]
	}
	for _, o := range shown {
		renderOrder(&b, o)
	}

	if len(orders) > maxDisplay {
		fmt.Fprintf(&b, "\n_Mostrando %d de %d pedidos._\n", maxDisplay, len(orders))
	}
	return b.String()
}

func renderOrder(b *strings.Builder, o arco.Order) {
	fmt.Fprintf(b, "\n🏫 *Escola:* %s - %s/%s\n", o.Str("Escola"), o.Str("Cidade"), o.Str("Uf"))
	fmt.Fprintf(b, "📦 *Produtos:* %s (%s itens)\n", o.Str("Produtos"), o.Str("QtdProdutos"))
	fmt.Fprintf(b, "💲 *Valor:* R$ %.2f\n", o.Num("ValorFinalPedido"))
	fmt.Fprintf(b, "🚚 *Status:* %s\n", o.Str("StatusPedido"))
	fmt.Fprintf(b, "📅 *Data Pedido:* %s\n", o.Str("DataPedido"))

	switch statusCategory(o.Str("StatusPedido")) {
	case categoryTransit:
		fmt.Fprintf(b, "🚛 *Transportadora:* %s\n", orDefault(o.Str("Transportadora"), missing))
		fmt.Fprintf(b, "📦 *Expedição:* %s\n", orDefault(o.Str("DataExpedicao"), "Ainda não expedido"))
		fmt.Fprintf(b, "🕒 *Previsão de Entrega:* %s\n", orDefault(o.Str("PrevisaoEntrega"), missing))
	case categoryDelivered:
		fmt.Fprintf(b, "✅ *Entrega:* %s\n", orDefault(o.Str("DataEntrega"), missing))
		fmt.Fprintf(b, "🚛 *Transportadora:* %s\n", orDefault(o.Str("Transportadora"), missing))
		fmt.Fprintf(b, "📦 *Expedição:* %s\n", orDefault(o.Str("DataExpedicao"), missing))
	case categoryCancelled:
		fmt.Fprintf(b, "❌ *Motivo do Cancelamento:* %s\n", orDefault(o.Str("MotivoCancelamento"), "não informado"))
	}

	fmt.Fprintf(b, "📧 %s | 📞 %s\n", orDefault(o.Str("Email"), missing), orDefault(o.Str("Telefone"), missing))
	b.WriteString("— — — — — — — —\n")
}

const (
	categoryTransit   = "transit"
	categoryDelivered = "delivered"
	categoryCancelled = "cancelled"
)

// statusCategory maps a free-form status string onto one of three mutually
// exclusive categories by keyword containment. Unknown statuses map to "".
func statusCategory(status string) string {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "cancelado"):
		return categoryCancelled
	case strings.Contains(s, "entregue"):
		return categoryDelivered
	case strings.Contains(s, "transito"), strings.Contains(s, "trânsito"),
		strings.Contains(s, "expedido"), strings.Contains(s, "despachado"):
		return categoryTransit
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
