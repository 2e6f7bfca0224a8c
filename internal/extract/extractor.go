package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText means the file was readable but no usable text could be derived.
// Ingestion aborts for that file only.
var ErrNoText = errors.New("no text could be extracted")

// ErrUnsupportedFormat means the file extension is outside the supported set.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var supportedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
	".csv": true,
	".tsv": true,
}

// Supported reports whether files with the given name can be extracted.
func Supported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Extractor turns stored file bytes into plain text regardless of the
// original format.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var err error
	switch ext {
	case ".pdf":
		text, err = e.extractPDF(data)
	case ".txt", ".md":
		text = string(data)
	case ".csv":
		text, err = e.extractDelimited(data, ',')
	case ".tsv":
		text, err = e.extractDelimited(data, '\t')
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, filename)
	}
	return text, nil
}

func (e *Extractor) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// extractDelimited renders tabular files as pipe-joined rows, one line per
// record, so the splitter sees them as row-like text.
func (e *Extractor) extractDelimited(data []byte, sep rune) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse delimited file: %w", err)
	}

	var sb strings.Builder
	for _, rec := range records {
		cells := make([]string, 0, len(rec))
		for _, c := range rec {
			if s := strings.TrimSpace(c); s != "" {
				cells = append(cells, s)
			}
		}
		if len(cells) == 0 {
			continue
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
