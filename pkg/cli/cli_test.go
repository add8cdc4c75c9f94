package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWindow(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	start, end := Window(10, now)
	if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
	if want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestParseDate(t *testing.T) {
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", fallback, false},
		{"2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), false},
		{"02/29/2024", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in, fallback)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketlab.yaml")
	content := "output:\n  dir: " + filepath.Join(dir, "out") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := Start("test", path, false)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer app.Close()

	if app.Config.Output.Dir != filepath.Join(dir, "out") {
		t.Errorf("Output.Dir = %q", app.Config.Output.Dir)
	}
	app.Save(true, "unit", map[string]int{"a": 1})
	matches, _ := filepath.Glob(filepath.Join(dir, "out", "unit_*.json"))
	if len(matches) != 1 {
		t.Errorf("saved reports = %v, want 1", matches)
	}

	if _, err := Start("test", writeBad(t), false); err == nil {
		t.Error("Start() should fail on an invalid config")
	}
}

func writeBad(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("backtest:\n  strategy: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPositions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	if err := os.WriteFile(path, []byte(`{"aapl": 3,}`), 0o644); err != nil {
		t.Fatal(err)
	}
	app, err := Start("test", filepath.Join(t.TempDir(), "none.yaml"), false)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	got, err := app.Positions(nil, path)
	if err != nil {
		t.Fatalf("Positions() error = %v", err)
	}
	if got["AAPL"] != 3 {
		t.Errorf("Positions() = %v, want AAPL 3", got)
	}
	if _, err := app.Positions(nil, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file without client should fail")
	}
}
