// Package export renders run results as review artifacts: a multi-sheet
// workbook for analysts and a CSV layer for mapping tools.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/model"
)

// WriteWorkbook writes the review workbook. One sheet per concern so
// analysts can filter each independently.
func WriteWorkbook(path string, result *model.RunResult) error {
	f := xlsx.NewFile()

	if err := addCompletenessSheet(f, "completeness_indicator", result.ByIndicator); err != nil {
		return err
	}
	if err := addCompletenessSheet(f, "completeness_unit", result.ByUnit); err != nil {
		return err
	}
	if err := addDuplicatesSheet(f, result.Duplicates); err != nil {
		return err
	}
	if err := addOutliersSheet(f, result.Flags); err != nil {
		return err
	}
	if err := addDerivedSheet(f, result.Derived); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}

	zap.L().Info("wrote review workbook",
		zap.String("path", path),
		zap.Int("outlier_flags", len(result.Flags)),
		zap.Int("derived_records", len(result.Derived)),
	)
	return nil
}

func addCompletenessSheet(f *xlsx.File, name string, summaries []model.CompletenessSummary) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header(sheet, "key", "name", "n_expected", "n_reported", "pct_reported", "n_missing", "pct_missing")
	for _, s := range summaries {
		row := sheet.AddRow()
		row.AddCell().SetString(s.Key)
		row.AddCell().SetString(s.Name)
		row.AddCell().SetInt(s.NExpected)
		row.AddCell().SetInt(s.NReported)
		// Inapplicable rows have no defined percentage.
		if s.Applicable {
			row.AddCell().SetFloat(s.PctReported)
		} else {
			row.AddCell().SetString("n/a")
		}
		row.AddCell().SetInt(s.NMissing)
		if s.Applicable {
			row.AddCell().SetFloat(s.PctMissing)
		} else {
			row.AddCell().SetString("n/a")
		}
	}
	return nil
}

func addDuplicatesSheet(f *xlsx.File, dupes []model.RawRecord) error {
	sheet, err := f.AddSheet("duplicates")
	if err != nil {
		return eris.Wrap(err, "export: add sheet duplicates")
	}

	header(sheet, "unit_id", "unit_name", "indicator_id", "period", "value", "submitted_at")
	for _, d := range dupes {
		row := sheet.AddRow()
		row.AddCell().SetString(d.UnitID)
		row.AddCell().SetString(d.UnitName)
		row.AddCell().SetString(d.IndicatorID)
		row.AddCell().SetString(d.Period.String())
		if d.Value != nil {
			row.AddCell().SetFloat(*d.Value)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(d.SubmittedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func addOutliersSheet(f *xlsx.File, flags []model.OutlierFlag) error {
	sheet, err := f.AddSheet("outliers")
	if err != nil {
		return eris.Wrap(err, "export: add sheet outliers")
	}

	header(sheet, "unit_id", "unit_name", "indicator_id", "period", "value",
		"group_mean", "group_stddev", "zscore", "threshold_lo", "threshold_hi",
		"is_outlier", "is_negative", "reason")
	for _, fl := range flags {
		row := sheet.AddRow()
		row.AddCell().SetString(fl.UnitID)
		row.AddCell().SetString(fl.UnitName)
		row.AddCell().SetString(fl.IndicatorID)
		row.AddCell().SetString(fl.Period.String())
		row.AddCell().SetFloat(fl.ValueClean)
		if fl.Evaluable {
			row.AddCell().SetFloat(fl.GroupMean)
			row.AddCell().SetFloat(fl.GroupStddev)
			row.AddCell().SetFloat(fl.ZScore)
			row.AddCell().SetFloat(fl.ThresholdLo)
			row.AddCell().SetFloat(fl.ThresholdHi)
		} else {
			for i := 0; i < 5; i++ {
				row.AddCell().SetString("")
			}
		}
		row.AddCell().SetString(strconv.FormatBool(fl.IsOutlier))
		row.AddCell().SetString(strconv.FormatBool(fl.IsNegative))
		row.AddCell().SetString(string(fl.Reason))
	}
	return nil
}

func addDerivedSheet(f *xlsx.File, derived []model.DerivedIndicatorRecord) error {
	sheet, err := f.AddSheet("derived_indicators")
	if err != nil {
		return eris.Wrap(err, "export: add sheet derived_indicators")
	}

	header(sheet, "unit_id", "unit_name", "derived_code", "period", "numerator", "denominator", "pct_value")
	for _, d := range derived {
		row := sheet.AddRow()
		row.AddCell().SetString(d.UnitID)
		row.AddCell().SetString(d.UnitName)
		row.AddCell().SetString(d.DerivedCode)
		row.AddCell().SetString(d.Period.String())
		row.AddCell().SetFloat(d.NumeratorValue)
		row.AddCell().SetFloat(d.DenominatorValue)
		row.AddCell().SetFloat(d.PctValue)
	}
	return nil
}

func header(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	for _, n := range names {
		row.AddCell().SetString(n)
	}
}
