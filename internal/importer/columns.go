package importer

import (
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// Column signatures per source.
var (
	bbvaRequired    = []string{"Fecha", "Concepto", "Importe"}
	bbvaOptional    = []string{"Saldo", "Divisa"}
	revolutRequired = []string{"Completed Date", "Amount", "Description"}
	revolutOptional = []string{"Type", "Currency", "State", "Reference"}
)

// RequiredColumns returns the header columns a source must carry.
func RequiredColumns(source model.Source) []string {
	switch source {
	case model.SourceBBVA:
		return bbvaRequired
	case model.SourceRevolut:
		return revolutRequired
	}
	return nil
}

// OptionalColumns returns the header columns a source may carry.
func OptionalColumns(source model.Source) []string {
	switch source {
	case model.SourceBBVA:
		return bbvaOptional
	case model.SourceRevolut:
		return revolutOptional
	}
	return nil
}

// validateColumns fails with a MissingColumnsError naming every required
// column absent from header. Comparison ignores case and accents.
func validateColumns(source model.Source, header []string, required []string) error {
	idx := headerIndex(header)
	var missing []string
	for _, col := range required {
		if _, ok := idx[normalize.CleanText(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Source: source, Missing: missing}
	}
	return nil
}

// headerIndex maps each cleaned header name to its first column position.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalize.CleanText(h)
		if key == "" {
			continue
		}
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

// record is one data row addressed by header name.
type record struct {
	index  map[string]int
	values []string
}

// has reports whether the header carries any of names.
func (r record) has(names ...string) bool {
	for _, n := range names {
		if _, ok := r.index[normalize.CleanText(n)]; ok {
			return true
		}
	}
	return false
}

// first returns the first non-empty value among the aliased columns.
func (r record) first(names ...string) string {
	for _, n := range names {
		if v := r.get(n); v != "" {
			return v
		}
	}
	return ""
}

// column returns the value of the first alias present in the header, even
// when that value is empty.
func (r record) column(names ...string) string {
	for _, n := range names {
		if _, ok := r.index[normalize.CleanText(n)]; ok {
			return r.get(n)
		}
	}
	return ""
}

func (r record) get(name string) string {
	i, ok := r.index[normalize.CleanText(name)]
	if !ok || i >= len(r.values) {
		return ""
	}
	return trimCell(r.values[i])
}
