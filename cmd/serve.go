package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/model"
	"github.com/ahead-health/dq-cli/internal/store"
	"github.com/ahead-health/dq-cli/internal/unitmaster"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reporting API server",
	Long:  "Serves recorded run results over HTTP for dashboards: run history, completeness roll-ups, outlier flags, and derived indicators.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate run store")
		}

		var units []unitmaster.Unit
		if cfg.Geo.ShapefilePath != "" {
			units, err = unitmaster.LoadUnits(cfg.Geo.ShapefilePath, cfg.Geo.UnitIDField, cfg.Geo.UnitNameField)
			if err != nil {
				return err
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, units),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting reporting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(st store.Store, units []unitmaster.Unit) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	api := &apiHandler{store: st, units: units}

	r.Get("/healthz", api.health)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", api.listRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", api.getRun)
			r.Get("/completeness/indicators", api.completenessIndicators)
			r.Get("/completeness/units", api.completenessUnits)
			r.Get("/outliers", api.outliers)
			r.Get("/derived", api.derived)
			r.Get("/geo", api.geo)
		})
	})

	return r
}

type apiHandler struct {
	store store.Store
	units []unitmaster.Unit
}

func (h *apiHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status:      model.RunStatus(r.URL.Query().Get("status")),
		CountryCode: r.URL.Query().Get("country"),
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Strip bulky results from the listing; clients fetch them per run.
	for i := range runs {
		runs[i].Result = nil
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *apiHandler) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *apiHandler) completenessIndicators(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadCompleteRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Result.ByIndicator)
}

func (h *apiHandler) completenessUnits(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadCompleteRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Result.ByUnit)
}

func (h *apiHandler) outliers(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadCompleteRun(w, r)
	if !ok {
		return
	}

	flags := run.Result.Flags
	if r.URL.Query().Get("flagged") == "true" {
		var filtered []model.OutlierFlag
		for _, f := range flags {
			if f.IsOutlier || f.IsNegative {
				filtered = append(filtered, f)
			}
		}
		flags = filtered
	}
	writeJSON(w, http.StatusOK, flags)
}

func (h *apiHandler) derived(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadCompleteRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Result.Derived)
}

func (h *apiHandler) geo(w http.ResponseWriter, r *http.Request) {
	if len(h.units) == 0 {
		writeError(w, http.StatusNotFound, eris.New("no unit master shapefile configured"))
		return
	}
	run, ok := h.loadCompleteRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, unitmaster.JoinGeo(h.units, run.Result.ByUnit, run.Result.Flags))
}

// loadRun fetches the run named in the URL, writing a 404 on miss.
func (h *apiHandler) loadRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return run, true
}

// loadCompleteRun additionally requires a stored result.
func (h *apiHandler) loadCompleteRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return nil, false
	}
	if run.Result == nil {
		writeError(w, http.StatusConflict, eris.Errorf("run %s has no result (status %s)", run.ID, run.Status))
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
