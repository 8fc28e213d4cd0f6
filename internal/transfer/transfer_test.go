package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

func row(id, account, date, description string, amount float64) model.MasterRow {
	typ := model.TypeExpense
	if amount > 0 {
		typ = model.TypeIncome
	}
	macro := "Ocio"
	return model.MasterRow{
		TxID:         id,
		Source:       model.SourceRevolut,
		AccountID:    account,
		Date:         date,
		Amount:       amount,
		Currency:     "EUR",
		Description:  description,
		Type:         typ,
		Macro:        &macro,
		ReviewStatus: model.StatusNeedsReview,
		Tags:         []string{},
	}
}

func TestFindHardPairs(t *testing.T) {
	d := NewDetector(3)
	tests := []struct {
		name string
		txs  []model.MasterRow
		want []Pair
	}{
		{
			name: "opposite legs inside window",
			txs: []model.MasterRow{
				row("a", "REVOLUT_SAMUEL", "2026-02-10", "To Andrea", -100),
				row("b", "REVOLUT_ANDREA", "2026-02-12", "From Samuel", 100),
			},
			want: []Pair{{A: 0, B: 1}},
		},
		{
			name: "outside window",
			txs: []model.MasterRow{
				row("a", "REVOLUT_SAMUEL", "2026-02-01", "To Andrea", -100),
				row("b", "REVOLUT_ANDREA", "2026-02-08", "From Samuel", 100),
			},
		},
		{
			name: "same account",
			txs: []model.MasterRow{
				row("a", "BBVA_JOINT", "2026-02-10", "Devolucion", -100),
				row("b", "BBVA_JOINT", "2026-02-10", "Devolucion", 100),
			},
		},
		{
			name: "same sign",
			txs: []model.MasterRow{
				row("a", "REVOLUT_SAMUEL", "2026-02-10", "Cine", -100),
				row("b", "REVOLUT_ANDREA", "2026-02-10", "Cine", -100),
			},
		},
		{
			name: "amount within a cent",
			txs: []model.MasterRow{
				row("a", "REVOLUT_SAMUEL", "2026-02-10", "To Andrea", -50.005),
				row("b", "REVOLUT_ANDREA", "2026-02-10", "From Samuel", 50),
			},
			want: []Pair{{A: 0, B: 1}},
		},
		{
			name: "greedy first match wins",
			txs: []model.MasterRow{
				row("a", "REVOLUT_SAMUEL", "2026-02-10", "To Andrea", -100),
				row("b", "REVOLUT_ANDREA", "2026-02-11", "From Samuel", 100),
				row("c", "BBVA_JOINT", "2026-02-10", "Traspaso", 100),
			},
			want: []Pair{{A: 0, B: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.FindHardPairs(tt.txs))
		})
	}
}

func TestFindHardPairs_CurrencyMismatch(t *testing.T) {
	a := row("a", "REVOLUT_SAMUEL", "2026-02-10", "To Andrea", -100)
	b := row("b", "REVOLUT_ANDREA", "2026-02-10", "From Samuel", 100)
	b.Currency = "USD"
	assert.Empty(t, NewDetector(3).FindHardPairs([]model.MasterRow{a, b}))
}

func TestRun_MarksPairAndLeavesInputUntouched(t *testing.T) {
	in := []model.MasterRow{
		row("a", "REVOLUT_SAMUEL", "2026-02-10", "To Andrea", -100),
		row("b", "REVOLUT_ANDREA", "2026-02-12", "From Samuel", 100),
		row("c", "REVOLUT_SAMUEL", "2026-02-20", "From Andrea", 100),
	}
	out := NewDetector(3).Run(in)
	require.Len(t, out, 3)

	for _, tx := range out[:2] {
		assert.True(t, tx.IsInternalTransfer)
		assert.Equal(t, model.TypeTransfer, tx.Type)
		assert.Nil(t, tx.Macro)
		assert.Nil(t, tx.Subcat)
		assert.Equal(t, model.StatusAutoOK, tx.ReviewStatus)
		assert.Equal(t, []string{model.TagInternalTransfer}, tx.Tags)
	}
	assert.False(t, out[2].IsInternalTransfer, "third row is eight days away")

	assert.False(t, in[0].IsInternalTransfer)
	assert.NotNil(t, in[0].Macro)
	assert.Empty(t, in[0].Tags)
}

func TestRun_TagsAreSet(t *testing.T) {
	a := row("a", "REVOLUT_SAMUEL", "2026-02-10", "To Andrea", -100)
	a.Tags = []string{model.TagInternalTransfer}
	b := row("b", "REVOLUT_ANDREA", "2026-02-10", "From Samuel", 100)

	out := NewDetector(3).Run([]model.MasterRow{a, b})
	assert.Equal(t, []string{model.TagInternalTransfer}, out[0].Tags)
	assert.True(t, out[1].IsInternalTransfer)
}

func TestRun_Saldo(t *testing.T) {
	out := NewDetector(3).Run([]model.MasterRow{
		row("a", "BBVA_JOINT", "2026-02-10", "Transferencia a Revolut", -100),
		row("b", "REVOLUT_JOINT", "2026-02-11", "Top-up", 100),
		row("c", "BBVA_JOINT", "2026-02-14", "Ajuste saldo tarjeta", -1),
	})
	s := Summarize(out)
	assert.Equal(t, 3, s.Total)
	assert.GreaterOrEqual(t, s.Internal, 2)
	assert.Equal(t, 1, s.Saldo)
	assert.True(t, out[2].HasTag(model.TagCheckSaldo))
}

func TestIsBlacklisted(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{"Nomina empresa", true},
		{"NÓMINA FEBRERO", true},
		{"Amazon Marketplace", true},
		{"Salario", true},
		{"Transferencia a Andrea", false},
		{"Mercadona", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsBlacklisted(model.MasterRow{Description: tt.description}), tt.description)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "A ANDREA", NormalizeText("Transferencia  SEPA a Andrea"))
	assert.Equal(t, "ENVIADO", NormalizeText("bizum enviado"))
}

func TestHeuristicReason(t *testing.T) {
	d := NewDetector(3)
	tests := []struct {
		name   string
		a, b   model.MasterRow
		want   Reason
		wantOK bool
	}{
		{
			name:   "transfer text",
			a:      row("a", "BBVA_JOINT", "2026-02-01", "Transfers out", -40),
			b:      row("b", "REVOLUT_JOINT", "2026-02-20", "Pago", 40),
			want:   ReasonText,
			wantOK: true,
		},
		{
			name:   "amount and window",
			a:      row("a", "BBVA_JOINT", "2026-02-01", "Pago", -40),
			b:      row("b", "REVOLUT_JOINT", "2026-02-03", "Cobro", 40),
			want:   ReasonAmountDay,
			wantOK: true,
		},
		{
			name: "blacklisted",
			a:    row("a", "BBVA_JOINT", "2026-02-01", "Nomina", 40),
			b:    row("b", "REVOLUT_JOINT", "2026-02-01", "Pago", -40),
		},
		{
			name: "amount differs",
			a:    row("a", "BBVA_JOINT", "2026-02-01", "Pago", -40),
			b:    row("b", "REVOLUT_JOINT", "2026-02-01", "Cobro", 41),
		},
		{
			name: "same account",
			a:    row("a", "BBVA_JOINT", "2026-02-01", "Pago", -40),
			b:    row("b", "BBVA_JOINT", "2026-02-01", "Cobro", 40),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.HeuristicReason(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChangedRows(t *testing.T) {
	before := []model.MasterRow{
		row("a", "REVOLUT_SAMUEL", "2026-02-10", "To Andrea", -100),
		row("b", "REVOLUT_ANDREA", "2026-02-12", "From Samuel", 100),
		row("c", "REVOLUT_SAMUEL", "2026-02-13", "Cine", -9),
	}
	after := NewDetector(3).Run(before)
	changed := ChangedRows(before, after)
	require.Len(t, changed, 2)
	assert.Equal(t, "a", changed[0].TxID)
	assert.Equal(t, "b", changed[1].TxID)
}

func TestGroupBySource(t *testing.T) {
	a := row("a", "BBVA_JOINT", "2026-02-10", "Pago", -100)
	a.Source = model.SourceBBVA
	b := row("b", "REVOLUT_JOINT", "2026-02-10", "Cobro", 100)
	out := NewDetector(3).Run([]model.MasterRow{a, b})

	groups := GroupBySource(out)
	assert.Len(t, groups[model.SourceBBVA], 1)
	assert.Len(t, groups[model.SourceRevolut], 1)
}
