// Package registry loads the indicator registry and derived indicator
// definitions from their configured backends (CSV export, Notion database,
// YAML file).
package registry

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/model"
)

// Header aliases seen across registry exports. Older extracts use the
// data_id/data_name vocabulary.
var csvHeaderAliases = map[string]string{
	"indicator_code": "code",
	"data_id":        "code",
	"indicator_name": "name",
	"data_name":      "name",
	"indicator_type": "type",
	"data_type":      "type",
	"active":         "active",
	"status":         "active",
}

// LoadIndicatorCSV reads an indicator registry export. Rows without a code
// are skipped with a warning rather than failing the load.
func LoadIndicatorCSV(path string) (*model.IndicatorRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: open indicator csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "registry: read indicator csv")
	}
	if len(rows) == 0 {
		return nil, eris.New("registry: indicator csv is empty")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := csvHeaderAliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	if _, ok := cols["code"]; !ok {
		return nil, eris.New("registry: indicator csv missing code column")
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var mappings []model.IndicatorMapping
	for n, row := range rows[1:] {
		code := cell(row, "code")
		if code == "" {
			zap.L().Warn("registry: skipping indicator row without code",
				zap.Int("row", n+2),
			)
			continue
		}
		mappings = append(mappings, model.IndicatorMapping{
			Code:   code,
			Name:   cell(row, "name"),
			Type:   cell(row, "type"),
			Active: parseActive(cell(row, "active")),
		})
	}

	return model.NewIndicatorRegistry(mappings), nil
}

// parseActive accepts the truthy spellings seen in registry exports. An empty
// cell means active; inactive rows are marked explicitly.
func parseActive(s string) bool {
	switch strings.ToLower(s) {
	case "", "1", "true", "yes", "active":
		return true
	default:
		return false
	}
}
