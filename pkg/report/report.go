package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"
)

const TIMESTAMP_LAYOUT = "20060102_150405"

// Envelope wraps every saved report.
type Envelope struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Kind        string    `json:"kind"`
	Data        any       `json:"data"`
}

// Writer saves reports under Dir. Now is replaceable for tests.
type Writer struct {
	Dir    string
	Pretty bool
	Now    func() time.Time
}

func NewWriter(dir string, prettify bool) *Writer {
	return &Writer{Dir: dir, Pretty: prettify, Now: time.Now}
}

// Save writes <dir>/<name>_<timestamp>.json and returns its path.
func (w *Writer) Save(name, kind string, v any) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	now := w.Now()
	env := Envelope{
		RunID:       uuid.NewString(),
		GeneratedAt: now.UTC(),
		Kind:        kind,
		Data:        v,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if w.Pretty {
		data = pretty.Pretty(data)
	}

	filename := filepath.Join(w.Dir, fmt.Sprintf("%s_%s.json", name, now.Format(TIMESTAMP_LAYOUT)))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return filename, nil
}

// Save is a one-shot Writer.Save with the name used as the kind.
func Save(dir, name string, v any, prettify bool) (string, error) {
	return NewWriter(dir, prettify).Save(name, name, v)
}
