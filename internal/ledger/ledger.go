package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

// FileName is the name of each month's export file.
const FileName = "transactions.csv"

// Ledger stores one transactions.csv per month under <root>/ledger/YYYY/MM.
type Ledger struct {
	root string
}

// New creates a Ledger rooted at repoRoot.
func New(repoRoot string) *Ledger {
	return &Ledger{root: repoRoot}
}

// MonthPath returns the export path for a YYYY-MM month.
func (l *Ledger) MonthPath(month string) (string, error) {
	t, err := normalize.ParseMonth(month)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, "ledger", fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())), FileName), nil
}

// WriteMonth validates rows and replaces the month's export with them,
// newest first. It returns the file written.
func (l *Ledger) WriteMonth(month string, rows []model.MasterRow) (string, error) {
	path, err := l.MonthPath(month)
	if err != nil {
		return "", err
	}
	if verrs := ValidateRows(rows, month); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	sorted := append([]model.MasterRow(nil), rows...)
	store.SortByDateDesc(sorted)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating ledger dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := WriteRows(f, sorted); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replacing %s: %w", path, err)
	}
	return path, nil
}

// ReadMonth reads the month's export. A missing file yields no rows.
func (l *Ledger) ReadMonth(month string) ([]model.MasterRow, error) {
	path, err := l.MonthPath(month)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return rows, nil
}
