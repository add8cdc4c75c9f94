package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"marketlab/pkg/portfolio"
)

var ErrNoPositions = errors.New("report: positions file has no holdings")

// LoadPositions reads a {"TICKER": shares} file. Hand-edited files with
// trailing commas or single quotes are repaired before decoding.
func LoadPositions(path string) (portfolio.Positions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read positions file: %w", err)
	}

	var decoded map[string]float64
	if err := json.Unmarshal(raw, &decoded); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(raw))
		if rerr != nil {
			return nil, fmt.Errorf("repair positions json: %w", rerr)
		}
		if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
			return nil, fmt.Errorf("parse positions json: %w", err)
		}
	}

	positions := make(portfolio.Positions, len(decoded))
	for ticker, shares := range decoded {
		if shares == 0 {
			continue
		}
		positions[strings.ToUpper(strings.TrimSpace(ticker))] += shares
	}
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}
	return positions, nil
}
