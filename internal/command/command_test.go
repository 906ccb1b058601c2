package command

import (
	"errors"
	"testing"
	"time"
)

var testDefaults = Defaults{Brand: "nave", ProjectYear: 2024, AgingDays: 7}

func testNow() time.Time {
	return time.Date(2024, 6, 15, 10, 30, 0, 0, time.Local)
}

func TestParseAging(t *testing.T) {
	now := testNow()

	tests := []struct {
		name      string
		text      string
		wantBrand string
		wantYear  int
		wantDays  int
		wantFrom  time.Time
		wantTo    time.Time
	}{
		{
			name:      "explicit window",
			text:      "aging nave 2024 7",
			wantBrand: "nave",
			wantYear:  2024,
			wantDays:  7,
			wantFrom:  time.Date(2024, 6, 8, 0, 0, 0, 0, time.Local),
			wantTo:    time.Date(2024, 6, 15, 23, 59, 59, 0, time.Local),
		},
		{
			name:      "thirty day window",
			text:      "aging nave 2024 30",
			wantBrand: "nave",
			wantYear:  2024,
			wantDays:  30,
			wantFrom:  time.Date(2024, 5, 16, 0, 0, 0, 0, time.Local),
			wantTo:    time.Date(2024, 6, 15, 23, 59, 59, 0, time.Local),
		},
		{
			name:      "everything defaulted",
			text:      "aging",
			wantBrand: "nave",
			wantYear:  2024,
			wantDays:  7,
			wantFrom:  time.Date(2024, 6, 8, 0, 0, 0, 0, time.Local),
			wantTo:    time.Date(2024, 6, 15, 23, 59, 59, 0, time.Local),
		},
		{
			name:      "non-numeric day count falls back",
			text:      "aging sas 2025 muitos",
			wantBrand: "sas",
			wantYear:  2025,
			wantDays:  7,
			wantFrom:  time.Date(2024, 6, 8, 0, 0, 0, 0, time.Local),
			wantTo:    time.Date(2024, 6, 15, 23, 59, 59, 0, time.Local),
		},
		{
			name:      "non-numeric year falls back",
			text:      "AGING nave ano 7",
			wantBrand: "nave",
			wantYear:  2024,
			wantDays:  7,
			wantFrom:  time.Date(2024, 6, 8, 0, 0, 0, 0, time.Local),
			wantTo:    time.Date(2024, 6, 15, 23, 59, 59, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Parse(tt.text, now, testDefaults)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.text, err)
			}
			if in.Kind != KindAging {
				t.Errorf("Kind = %q, want %q", in.Kind, KindAging)
			}
			if in.Brand != tt.wantBrand {
				t.Errorf("Brand = %q, want %q", in.Brand, tt.wantBrand)
			}
			if in.ProjectYear != tt.wantYear {
				t.Errorf("ProjectYear = %d, want %d", in.ProjectYear, tt.wantYear)
			}
			if in.Days != tt.wantDays {
				t.Errorf("Days = %d, want %d", in.Days, tt.wantDays)
			}
			if !in.From.Equal(tt.wantFrom) {
				t.Errorf("From = %v, want %v", in.From, tt.wantFrom)
			}
			if !in.To.Equal(tt.wantTo) {
				t.Errorf("To = %v, want %v", in.To, tt.wantTo)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	now := testNow()

	in, err := Parse("numero nave 2024 987654", now, testDefaults)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if in.Kind != KindNumber {
		t.Errorf("Kind = %q, want %q", in.Kind, KindNumber)
	}
	if in.OrderNumber != "987654" {
		t.Errorf("OrderNumber = %q, want %q", in.OrderNumber, "987654")
	}
	// Rolling two-year window: the remote cannot filter by order number, so
	// the range has to stay wide for the post-fetch match to find anything.
	wantFrom := time.Date(2022, 6, 15, 0, 0, 0, 0, time.Local)
	wantTo := time.Date(2024, 6, 15, 23, 59, 59, 0, time.Local)
	if !in.From.Equal(wantFrom) {
		t.Errorf("From = %v, want %v", in.From, wantFrom)
	}
	if !in.To.Equal(wantTo) {
		t.Errorf("To = %v, want %v", in.To, wantTo)
	}

	_, err = Parse("numero nave 2024", now, testDefaults)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("Parse() error = %v, want UsageError", err)
	}
	if uerr.Hint != UsageNumber {
		t.Errorf("UsageError.Hint = %q, want %q", uerr.Hint, UsageNumber)
	}
}

func TestParseShipping(t *testing.T) {
	now := testNow()

	tests := []struct {
		name     string
		text     string
		wantErr  bool
		badInput string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "valid window",
			text:     "expedicao nave 2024-03-01 2024-03-15",
			wantFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
			wantTo:   time.Date(2024, 3, 15, 23, 59, 59, 0, time.Local),
		},
		{
			name:     "single day window",
			text:     "expedicao nave 2024-03-01 2024-03-01",
			wantFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
			wantTo:   time.Date(2024, 3, 1, 23, 59, 59, 0, time.Local),
		},
		{
			name:     "bad start date",
			text:     "expedicao nave 01/03/2024 2024-03-15",
			wantErr:  true,
			badInput: "01/03/2024",
		},
		{
			name:     "bad end date",
			text:     "expedicao nave 2024-03-01 2024-02-30",
			wantErr:  true,
			badInput: "2024-02-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Parse(tt.text, now, testDefaults)
			if tt.wantErr {
				var derr *DateError
				if !errors.As(err, &derr) {
					t.Fatalf("Parse() error = %v, want DateError", err)
				}
				if derr.Input != tt.badInput {
					t.Errorf("DateError.Input = %q, want %q", derr.Input, tt.badInput)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !in.DespatchOnly {
				t.Error("DespatchOnly = false, want true")
			}
			if !in.From.Equal(tt.wantFrom) {
				t.Errorf("From = %v, want %v", in.From, tt.wantFrom)
			}
			if !in.To.Equal(tt.wantTo) {
				t.Errorf("To = %v, want %v", in.To, tt.wantTo)
			}
		})
	}
}

func TestParseSchool(t *testing.T) {
	now := testNow()

	in, err := Parse("escola nave 2024 Colégio Raízes", now, testDefaults)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if in.Kind != KindSchool {
		t.Errorf("Kind = %q, want %q", in.Kind, KindSchool)
	}
	if in.School != "Colégio Raízes" {
		t.Errorf("School = %q, want %q", in.School, "Colégio Raízes")
	}
	// Full project year window
	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	wantTo := time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local)
	if !in.From.Equal(wantFrom) {
		t.Errorf("From = %v, want %v", in.From, wantFrom)
	}
	if !in.To.Equal(wantTo) {
		t.Errorf("To = %v, want %v", in.To, wantTo)
	}

	_, err = Parse("escola nave 2024", now, testDefaults)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("Parse() error = %v, want UsageError", err)
	}
	if uerr.Hint != UsageSchool {
		t.Errorf("UsageError.Hint = %q, want %q", uerr.Hint, UsageSchool)
	}
}

func TestParseRejections(t *testing.T) {
	now := testNow()

	t.Run("empty text", func(t *testing.T) {
		_, err := Parse("   ", now, testDefaults)
		var uerr *UsageError
		if !errors.As(err, &uerr) {
			t.Fatalf("Parse() error = %v, want UsageError", err)
		}
		if uerr.Hint != UsageGeneral {
			t.Errorf("UsageError.Hint = %q, want %q", uerr.Hint, UsageGeneral)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := Parse("entregas nave 2024", now, testDefaults)
		if !errors.Is(err, ErrUnknownCommand) {
			t.Fatalf("Parse() error = %v, want ErrUnknownCommand", err)
		}
	})
}

func TestIntentFilter(t *testing.T) {
	now := testNow()

	in, err := Parse("expedicao nave 2024-03-01 2024-03-15", now, testDefaults)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	f := in.Filter("tok-123")
	if f.Token != "tok-123" {
		t.Errorf("Filter().Token = %q, want %q", f.Token, "tok-123")
	}
	if f.Tipo != "pedido" {
		t.Errorf("Filter().Tipo = %q, want %q", f.Tipo, "pedido")
	}
	if f.Marca != "nave" {
		t.Errorf("Filter().Marca = %q, want %q", f.Marca, "nave")
	}
	if f.DataPedidoInicial != "2024-03-01 00:00:00" {
		t.Errorf("Filter().DataPedidoInicial = %q", f.DataPedidoInicial)
	}
	if f.DataPedidoFinal != "2024-03-15 23:59:59" {
		t.Errorf("Filter().DataPedidoFinal = %q", f.DataPedidoFinal)
	}
	if f.SomenteExpedidos != "S" {
		t.Errorf("Filter().SomenteExpedidos = %q, want %q", f.SomenteExpedidos, "S")
	}

	aging, err := Parse("aging nave 2024 7", now, testDefaults)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	af := aging.Filter("tok-123")
	if af.SomenteExpedidos != "" {
		t.Errorf("aging Filter().SomenteExpedidos = %q, want empty", af.SomenteExpedidos)
	}
	if af.AnoProjeto != 2024 {
		t.Errorf("aging Filter().AnoProjeto = %d, want 2024", af.AnoProjeto)
	}
}
