package arco

import "encoding/json"

// Order is one order record as returned by the ARCO query endpoint. The
// schema is owned by the remote service; the relay only projects the handful
// of fields it renders, so the record stays an opaque mapping.
type Order map[string]any

// Str returns the named field as a string, or "" when absent or not textual.
// Numbers are formatted without a decimal part when integral.
func (o Order) Str(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case float64:
		n := json.Number(jsonNumber(v))
		return n.String()
	default:
		return ""
	}
}

// Num returns the named field as a float64, defaulting to 0 when the field
// is absent or non-numeric. Missing monetary fields must render as zero,
// never raise.
func (o Order) Num(key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// OrderFilter is the query payload for the ARCO order endpoint. Field names
// follow the remote schema.
type OrderFilter struct {
	Token             string `json:"token"`
	Tipo              string `json:"Tipo"`
	Marca             string `json:"Marca"`
	AnoProjeto        int    `json:"AnoProjeto"`
	DataPedidoInicial string `json:"DataPedidoInicial"`
	DataPedidoFinal   string `json:"DataPedidoFinal"`
	SomenteExpedidos  string `json:"SomenteExpedidos,omitempty"` // "S" to restrict to despatched orders
}
