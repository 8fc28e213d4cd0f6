// Package importer detects which bank produced a statement file and turns its
// rows into model.ParsedRow values.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/accounts"
	"github.com/SamuelPereira26/Finhouse/internal/model"
)

var (
	// ErrInvalidFile is wrapped by every error caused by the file's contents.
	ErrInvalidFile = errors.New("invalid import file")
	// ErrUnknownSource means no parser recognised the file.
	ErrUnknownSource = fmt.Errorf("%w: could not detect file source", ErrInvalidFile)
	// ErrUnsupportedSource means no parser is registered for a source.
	ErrUnsupportedSource = fmt.Errorf("%w: unsupported source", ErrInvalidFile)
)

// MissingColumnsError reports required header columns absent from a file.
type MissingColumnsError struct {
	Source  model.Source
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns for %s: %s", e.Source, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrInvalidFile }

// Parser detects and parses one bank's export format.
type Parser interface {
	Source() model.Source
	Detect(fileName string, content []byte) (model.SourceInfo, error)
	Parse(content []byte, info model.SourceInfo) ([]model.ParsedRow, error)
}

// Registry holds parsers keyed by source.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate source.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(string(p.Source()))
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser source: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for source, or nil.
func (r *Registry) Get(source model.Source) Parser {
	return r.parsers[strings.ToLower(string(source))]
}

// DefaultRegistry returns a registry with the BBVA and Revolut parsers.
func DefaultRegistry(accts *accounts.Service) *Registry {
	r := NewRegistry()
	r.Register(&BBVAParser{AccountID: accounts.BBVA})
	r.Register(&RevolutParser{Accounts: accts})
	return r
}

// Detect works out which source produced a file. Spreadsheet extensions go
// to BBVA and .csv to Revolut; anything else is sniffed.
func (r *Registry) Detect(fileName string, content []byte) (model.SourceInfo, error) {
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return r.detectWith(model.SourceBBVA, fileName, content)
	case strings.HasSuffix(lower, ".csv"):
		return r.detectWith(model.SourceRevolut, fileName, content)
	}

	text := string(content)
	if strings.Contains(text, "Completed Date") && strings.Contains(text, "Amount") {
		return r.detectWith(model.SourceRevolut, fileName, content)
	}

	info, err := r.detectWith(model.SourceBBVA, fileName, content)
	if err != nil {
		return model.SourceInfo{}, fmt.Errorf("%w: %s", ErrUnknownSource, fileName)
	}
	return info, nil
}

// Parse converts content into rows using the parser for info.Source.
func (r *Registry) Parse(content []byte, info model.SourceInfo) ([]model.ParsedRow, error) {
	p := r.Get(info.Source)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, info.Source)
	}
	return p.Parse(content, info)
}

func (r *Registry) detectWith(source model.Source, fileName string, content []byte) (model.SourceInfo, error) {
	p := r.Get(source)
	if p == nil {
		return model.SourceInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
	return p.Detect(fileName, content)
}

// importDir is the subdirectory for statement files waiting to be imported.
const importDir = "import"

// processedDir is the subdirectory for imported statement files.
const processedDir = "import/processed"

var statementExts = []string{".csv", ".xlsx", ".xls"}

// Scan returns statement files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !isStatement(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

func isStatement(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range statementExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
