package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/dq"
	"github.com/ahead-health/dq-cli/internal/export"
	"github.com/ahead-health/dq-cli/internal/model"
	"github.com/ahead-health/dq-cli/internal/unitmaster"
)

var (
	runCountry  string
	runLevel    int
	runDateMin  string
	runDateMax  string
	runWorkbook string
	runGeoCSV   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a quality assessment over the configured scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Flag overrides
		sc := cfg.Scope
		if runCountry != "" {
			sc.CountryCode = runCountry
		}
		if runLevel != 0 {
			sc.UnitLevel = runLevel
		}
		if runDateMin != "" {
			sc.DateMin = runDateMin
		}
		if runDateMax != "" {
			sc.DateMax = runDateMax
		}

		scope, err := scopeFromConfig(sc)
		if err != nil {
			return err
		}

		st, err := initStore()
		if err != nil {
			return eris.Wrap(err, "open run store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate run store")
		}

		src, cleanup, err := newSource(ctx, cfg.Source)
		if err != nil {
			return err
		}
		defer cleanup()

		ec, err := engineConfig(ctx, scope)
		if err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, scope)
		if err != nil {
			return eris.Wrap(err, "record run")
		}

		raw, err := src.Fetch(ctx, scope)
		if err != nil {
			if ferr := st.FailRun(ctx, run.ID, err); ferr != nil {
				zap.L().Warn("could not record run failure", zap.Error(ferr))
			}
			return eris.Wrap(err, "fetch observations")
		}

		result, err := dq.Run(ctx, raw, ec)
		if err != nil {
			if ferr := st.FailRun(ctx, run.ID, err); ferr != nil {
				zap.L().Warn("could not record run failure", zap.Error(ferr))
			}
			return eris.Wrap(err, "quality assessment")
		}

		if err := st.UpdateRunResult(ctx, run.ID, result); err != nil {
			return eris.Wrap(err, "save run result")
		}

		workbookPath := runWorkbook
		if workbookPath == "" {
			workbookPath = cfg.Export.WorkbookPath
		}
		if err := export.WriteWorkbook(workbookPath, result); err != nil {
			return err
		}

		if cfg.Geo.ShapefilePath != "" {
			units, err := unitmaster.LoadUnits(cfg.Geo.ShapefilePath, cfg.Geo.UnitIDField, cfg.Geo.UnitNameField)
			if err != nil {
				return err
			}
			geoPath := runGeoCSV
			if geoPath == "" {
				geoPath = cfg.Export.GeoCSVPath
			}
			rows := unitmaster.JoinGeo(units, result.ByUnit, result.Flags)
			if err := export.WriteGeoCSV(geoPath, rows); err != nil {
				return err
			}
		}

		zap.L().Info("run complete",
			zap.String("run_id", run.ID),
			zap.Int("raw", result.NRaw),
			zap.Int("duplicates_removed", result.DuplicatesRemoved),
			zap.Int("outliers", result.NOutliers),
		)

		// Print summary JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runSummary(run.ID, result))
	},
}

type summaryOut struct {
	RunID             string `json:"run_id"`
	NRaw              int    `json:"n_raw"`
	NResolved         int    `json:"n_resolved"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	Rejected          int    `json:"rejected"`
	GridSize          int    `json:"grid_size"`
	NOutliers         int    `json:"n_outliers"`
	NNegative         int    `json:"n_negative"`
	NDerived          int    `json:"n_derived"`
}

func runSummary(id string, r *model.RunResult) summaryOut {
	return summaryOut{
		RunID:             id,
		NRaw:              r.NRaw,
		NResolved:         r.NResolved,
		DuplicatesRemoved: r.DuplicatesRemoved,
		Rejected:          r.Rejected,
		GridSize:          r.GridSize,
		NOutliers:         r.NOutliers,
		NNegative:         r.NNegative,
		NDerived:          len(r.Derived),
	}
}

func init() {
	runCmd.Flags().StringVar(&runCountry, "country", "", "country code (default from config)")
	runCmd.Flags().IntVar(&runLevel, "level", 0, "organisational unit level (default from config)")
	runCmd.Flags().StringVar(&runDateMin, "date-min", "", "inclusive start period, YYYY-MM")
	runCmd.Flags().StringVar(&runDateMax, "date-max", "", "inclusive end period, YYYY-MM")
	runCmd.Flags().StringVar(&runWorkbook, "out", "", "review workbook path (default from config)")
	runCmd.Flags().StringVar(&runGeoCSV, "geo-out", "", "geo CSV path (default from config)")
	rootCmd.AddCommand(runCmd)
}
