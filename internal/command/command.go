package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/raizessolucoes/arco-relay/internal/arco"
)

// Kind identifies a command variant. The values are the literal first tokens
// users type.
type Kind string

const (
	KindAging    Kind = "aging"
	KindNumber   Kind = "numero"
	KindShipping Kind = "expedicao"
	KindSchool   Kind = "escola"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// Usage hints shown when a command is malformed.
const (
	UsageGeneral  = "Formato incorreto. Ex: /consulta aging nave 2024 7"
	UsageAging    = "Uso: /consulta aging <marca> [ano] [dias]"
	UsageNumber   = "Uso: /consulta numero <marca> <ano> <pedido>"
	UsageShipping = "Uso: /consulta expedicao <marca> <data-inicial> <data-final> (AAAA-MM-DD)"
	UsageSchool   = "Uso: /consulta escola <marca> <ano> <nome da escola>"
)

// ErrUnknownCommand indicates an unrecognized first token.
var ErrUnknownCommand = errors.New("comando desconhecido")

// UsageError reports a malformed command together with the usage line for
// its kind.
type UsageError struct {
	Hint string
}

func (e *UsageError) Error() string {
	return e.Hint
}

// DateError reports a date argument that does not parse as AAAA-MM-DD.
type DateError struct {
	Input string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("data inválida %q, use AAAA-MM-DD", e.Input)
}

// Defaults are applied when a command omits an optional argument.
type Defaults struct {
	Brand       string
	ProjectYear int
	AgingDays   int
}

// Intent is the parsed, validated representation of one command. From/To are
// the query window sent to the remote service; for numero and escola the
// window is deliberately wide because the remote cannot filter on those
// fields server-side, and the post-fetch filter needs candidates to match
// against.
type Intent struct {
	Kind         Kind
	Brand        string
	ProjectYear  int
	Days         int    // aging window
	OrderNumber  string // numero: exact match applied post-fetch
	School       string // escola: substring match applied post-fetch
	DespatchOnly bool   // expedicao: restrict to despatched orders
	From         time.Time
	To           time.Time
}

// Filter builds the remote query payload for this intent using the token of
// the current dispatch.
func (in Intent) Filter(token string) arco.OrderFilter {
	f := arco.OrderFilter{
		Token:             token,
		Tipo:              "pedido",
		Marca:             in.Brand,
		AnoProjeto:        in.ProjectYear,
		DataPedidoInicial: in.From.Format(dateTimeLayout),
		DataPedidoFinal:   in.To.Format(dateTimeLayout),
	}
	if in.DespatchOnly {
		f.SomenteExpedidos = "S"
	}
	return f
}

// Parse tokenizes text on whitespace and builds the intent for its kind.
// Malformed input fails here, before anything touches the network.
func Parse(text string, now time.Time, d Defaults) (Intent, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Intent{}, &UsageError{Hint: UsageGeneral}
	}

	kind := Kind(strings.ToLower(fields[0]))
	switch kind {
	case KindAging:
		return parseAging(fields, now, d)
	case KindNumber:
		return parseNumber(fields, now, d)
	case KindShipping:
		return parseShipping(fields, now, d)
	case KindSchool:
		return parseSchool(fields, now, d)
	default:
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

// aging [marca] [ano] [dias] — orders placed in the last N days. The only
// kind where every argument may be omitted.
func parseAging(fields []string, now time.Time, d Defaults) (Intent, error) {
	days := d.AgingDays
	if len(fields) > 3 {
		if n, err := strconv.Atoi(fields[3]); err == nil && n > 0 {
			days = n
		}
	}
	return Intent{
		Kind:        KindAging,
		Brand:       brandAt(fields, 1, d),
		ProjectYear: yearAt(fields, 2, d),
		Days:        days,
		From:        startOfDay(now.AddDate(0, 0, -days)),
		To:          endOfDay(now),
	}, nil
}

// numero <marca> <ano> <pedido> — the remote cannot filter by order number,
// so the query spans a rolling two-year window ending today and the exact
// match happens client-side after the fetch.
func parseNumber(fields []string, now time.Time, d Defaults) (Intent, error) {
	if len(fields) < 4 {
		return Intent{}, &UsageError{Hint: UsageNumber}
	}
	return Intent{
		Kind:        KindNumber,
		Brand:       fields[1],
		ProjectYear: yearAt(fields, 2, d),
		OrderNumber: fields[3],
		From:        startOfDay(now.AddDate(-2, 0, 0)),
		To:          endOfDay(now),
	}, nil
}

// expedicao <marca> <inicio> <fim> — explicit calendar window, end inclusive.
func parseShipping(fields []string, now time.Time, d Defaults) (Intent, error) {
	if len(fields) < 4 {
		return Intent{}, &UsageError{Hint: UsageShipping}
	}
	from, err := time.ParseInLocation("2006-01-02", fields[2], now.Location())
	if err != nil {
		return Intent{}, &DateError{Input: fields[2]}
	}
	to, err := time.ParseInLocation("2006-01-02", fields[3], now.Location())
	if err != nil {
		return Intent{}, &DateError{Input: fields[3]}
	}
	return Intent{
		Kind:         KindShipping,
		Brand:        fields[1],
		ProjectYear:  d.ProjectYear,
		DespatchOnly: true,
		From:         from,
		To:           endOfDay(to),
	}, nil
}

// escola <marca> <ano> <nome...> — the name takes the rest of the line; the
// remote cannot filter by school, so the query spans the full project year
// and the substring match happens client-side.
func parseSchool(fields []string, now time.Time, d Defaults) (Intent, error) {
	if len(fields) < 4 {
		return Intent{}, &UsageError{Hint: UsageSchool}
	}
	year := yearAt(fields, 2, d)
	return Intent{
		Kind:        KindSchool,
		Brand:       fields[1],
		ProjectYear: year,
		School:      strings.Join(fields[3:], " "),
		From:        time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location()),
		To:          time.Date(year, time.December, 31, 23, 59, 59, 0, now.Location()),
	}, nil
}

// brandAt reads the brand at index i, falling back to the default when the
// token is missing.
func brandAt(fields []string, i int, d Defaults) string {
	if len(fields) > i {
		return fields[i]
	}
	return d.Brand
}

// yearAt reads the project year at index i, falling back to the default when
// the token is missing or non-numeric.
func yearAt(fields []string, i int, d Defaults) int {
	if len(fields) > i {
		if y, err := strconv.Atoi(fields[i]); err == nil {
			return y
		}
	}
	return d.ProjectYear
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
