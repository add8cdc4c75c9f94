package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWriter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewWriter(dir, true)
	w.Now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	path, err := w.Save("portfolio_metrics", "portfolio", map[string]float64{"total": 1.5})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if want := filepath.Join(dir, "portfolio_metrics_20240506_070809.json"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "\n  ") {
		t.Error("pretty output is not indented")
	}

	var got struct {
		RunID       string             `json:"run_id"`
		GeneratedAt time.Time          `json:"generated_at"`
		Kind        string             `json:"kind"`
		Data        map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := uuid.Parse(got.RunID); err != nil {
		t.Errorf("RunID = %q is not a uuid", got.RunID)
	}
	if got.Kind != "portfolio" || got.Data["total"] != 1.5 {
		t.Errorf("envelope = %+v", got)
	}
}

func TestSave_Compact(t *testing.T) {
	path, err := Save(t.TempDir(), "gappers", []int{1, 2}, false)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "\n") {
		t.Errorf("compact output contains newlines: %s", raw)
	}
	if !strings.Contains(string(raw), `"kind":"gappers"`) {
		t.Errorf("kind missing: %s", raw)
	}
}

func TestLoadPositions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]float64
		wantErr error
	}{
		{"strict json", `{"AAPL": 10, "msft": 5.5}`, map[string]float64{"AAPL": 10, "MSFT": 5.5}, nil},
		{"trailing comma", "{\"AAPL\": 10, \"NVDA\": 2,}", map[string]float64{"AAPL": 10, "NVDA": 2}, nil},
		{"single quotes", `{'VOO': 3}`, map[string]float64{"VOO": 3}, nil},
		{"zero shares dropped", `{"AAPL": 0}`, nil, ErrNoPositions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "positions.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadPositions(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPositions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("positions = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("positions[%s] = %v, want %v", k, got[k], v)
				}
			}
		})
	}

	if _, err := LoadPositions(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}
