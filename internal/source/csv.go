package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/ahead-health/dq-cli/internal/model"
)

// CSVSource reads raw observations from a local warehouse extract. Extracts
// exported from legacy desktop tools are frequently Windows-1252 encoded;
// non-UTF-8 input is transparently decoded.
type CSVSource struct {
	Path string
}

// NewCSV creates a CSVSource for the given extract path.
func NewCSV(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Fetch reads and parses the extract, keeping input order. Rows whose period
// or submitted_at cannot be parsed are kept with zero fields so the engine
// counts them as rejections instead of the source silently dropping them.
func (s *CSVSource) Fetch(ctx context.Context, scope model.Scope) ([]model.RawRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read csv %s", s.Path)
	}
	records, err := ParseCSV(data, scope)
	if err != nil {
		return nil, err
	}

	zap.L().Info("fetched raw observations",
		zap.String("driver", "csv"),
		zap.String("path", s.Path),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// csvColumns maps header aliases to canonical column names.
var csvColumns = map[string]string{
	"unit_code":      "unit_id",
	"unit_id":        "unit_id",
	"unit_name":      "unit_name",
	"indicator_code": "indicator_id",
	"indicator_id":   "indicator_id",
	"indicator_name": "indicator_name",
	"date":           "period",
	"period":         "period",
	"value":          "value",
	"value_clean":    "value",
	"submitted_at":   "submitted_at",
	"lastupdated":    "submitted_at",
}

// ParseCSV parses an observation extract, filtering to the scope's date
// bounds. Header names are matched case-insensitively against common
// warehouse aliases.
func ParseCSV(data []byte, scope model.Scope) ([]model.RawRecord, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, eris.Wrap(err, "source: decode csv charset")
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "source: read csv header")
	}
	cols := map[string]int{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := csvColumns[name]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	for _, required := range []string{"unit_id", "indicator_id", "period"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("source: csv missing required column %s", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []model.RawRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "source: read csv row")
		}

		rec := model.RawRecord{
			UnitID:        field(row, "unit_id"),
			UnitName:      field(row, "unit_name"),
			IndicatorID:   field(row, "indicator_id"),
			IndicatorName: field(row, "indicator_name"),
		}

		if raw := field(row, "period"); raw != "" {
			if p, perr := model.ParsePeriod(raw); perr == nil {
				rec.Period = p
			}
		}
		if raw := field(row, "value"); raw != "" {
			if v, verr := strconv.ParseFloat(raw, 64); verr == nil {
				rec.Value = &v
			}
		}
		if raw := field(row, "submitted_at"); raw != "" {
			rec.SubmittedAt = parseTimestamp(raw)
		}

		if !rec.Period.IsZero() && !inRange(rec.Period, scope) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
