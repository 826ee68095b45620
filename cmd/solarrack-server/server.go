package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/piwi3910/SolarRack/internal/dispatch"
	"github.com/piwi3910/SolarRack/internal/engine"
	"github.com/piwi3910/SolarRack/internal/export"
	"github.com/piwi3910/SolarRack/internal/logging"
	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/piwi3910/SolarRack/internal/observability"
	"github.com/piwi3910/SolarRack/internal/telemetry"
)

const (
	apiPrefix    = "/api/v1"
	maxBodyBytes = 1 << 20
)

// snapshotStore reads back recorded telemetry. *telemetry.SQLiteSink
// implements it.
type snapshotStore interface {
	Recent(ctx context.Context, limit int) ([]telemetry.Snapshot, error)
}

type server struct {
	dispatcher *dispatch.Dispatcher
	metrics    *observability.Collector
	telemetry  *telemetry.Publisher
	snapshots  snapshotStore
	log        logging.Logger
	shareURL   string
}

func (s *server) routes(maxConcurrent int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(limiter(maxConcurrent))
		r.Get("/catalog", s.handleCatalog)
		r.Get("/telemetry/recent", s.handleRecent)
		r.Post("/dispatch", s.handleDispatch)
		r.Post("/calculate", s.handleCalculate)
		r.Post("/compare", s.handleCompare)
		r.Post("/export/pdf", s.handleExport(exportPDF))
		r.Post("/export/xlsx", s.handleExport(exportXLSX))
		r.Post("/export/labels", s.handleExport(exportLabels))
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type catalogEntry struct {
	Part         model.PartName `json:"part"`
	Label        string         `json:"label"`
	UnitsPerPack int            `json:"units_per_pack"`
	PricePerPack float64        `json:"price_per_pack"`
}

func (s *server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	catalog := s.dispatcher.Catalog()
	entries := make([]catalogEntry, 0, len(catalog))
	for _, name := range catalog.Names() {
		e := catalog[name]
		entries = append(entries, catalogEntry{
			Part:         name,
			Label:        name.Label(),
			UnitsPerPack: e.UnitsPerPack,
			PricePerPack: e.PricePerPack,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.writeError(w, r, fmt.Errorf("telemetry store not configured: %w", errNotFound))
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			s.writeError(w, r, fmt.Errorf("limit must be between 1 and 1000: %w", errBadRequest))
			return
		}
		limit = n
	}
	snaps, err := s.snapshots.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleDispatch accepts a raw request envelope. The envelope's requestId
// defaults to the HTTP request id.
func (s *server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req dispatch.Request
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = logging.RequestIDFromContext(r.Context())
	}

	resp, err := s.dispatcher.Do(r.Context(), req)
	s.publish(r.Context(), "dispatch:"+string(req.Operation), nil, nil, start, err)
	if err != nil {
		if resp.Error != "" {
			writeJSON(w, statusFor(err), resp)
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type calculateResponse struct {
	Name     string            `json:"name,omitempty"`
	GridCode string            `json:"grid_code"`
	Modules  int               `json:"modules"`
	Parts    model.PartsBundle `json:"parts"`
	Cost     model.CostResult  `json:"cost"`
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg, err := decodeConfiguration(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	parts, err := s.dispatcher.PartitionWithAccessories(r.Context(), cfg)
	if err != nil {
		s.publish(r.Context(), "calculate", &cfg, nil, start, err)
		s.writeError(w, r, err)
		return
	}
	cost, err := s.dispatcher.CostBundle(r.Context(), parts)
	s.publish(r.Context(), "calculate", &cfg, &cost, start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, calculateResponse{
		Name:     cfg.Name,
		GridCode: cfg.Grid.Code(),
		Modules:  cfg.Grid.SelectedCount(),
		Parts:    parts,
		Cost:     cost,
	})
}

type scenarioResponse struct {
	Name       string           `json:"name"`
	Cost       model.CostResult `json:"cost"`
	RailPieces int              `json:"rail_pieces"`
	WasteCm    float64          `json:"waste_cm"`
	Error      string           `json:"error,omitempty"`
}

// handleCompare prices the default what-if scenarios of a configuration.
// With ?format=html it returns the comparison chart page instead of JSON.
func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg, err := decodeConfiguration(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	results := engine.CompareScenarios(engine.BuildDefaultScenarios(cfg), s.dispatcher.Catalog())
	s.publish(r.Context(), "compare", &cfg, nil, start, results[0].Err)

	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		s.render(w, r, func(out io.Writer) error { return export.WriteComparisonHTML(out, results) })
		return
	}

	out := make([]scenarioResponse, 0, len(results))
	for _, res := range results {
		sr := scenarioResponse{Name: res.Scenario.Name, Cost: res.Cost, RailPieces: res.RailPieces, WasteCm: res.WasteCm}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		}
		out = append(out, sr)
	}
	writeJSON(w, http.StatusOK, out)
}

type exportKind struct {
	operation   string
	contentType string
	extension   string
	write       func(io.Writer, export.Quote) error
}

var (
	exportPDF    = exportKind{"export_pdf", "application/pdf", "pdf", export.WriteQuotePDF}
	exportXLSX   = exportKind{"export_xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", export.WriteBOMXLSX}
	exportLabels = exportKind{"export_labels", "application/pdf", "pdf", export.WritePickLabels}
)

func (s *server) handleExport(kind exportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		cfg, err := decodeConfiguration(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		q, err := export.NewQuote(cfg, s.dispatcher.Catalog())
		if err != nil {
			s.publish(r.Context(), kind.operation, &cfg, nil, start, err)
			s.writeError(w, r, err)
			return
		}
		q.ShareURL = s.shareURL
		s.publish(r.Context(), kind.operation, &cfg, &q.Cost, start, nil)

		w.Header().Set("Content-Type", kind.contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName(cfg.Name, kind.extension)))
		s.render(w, r, func(out io.Writer) error { return kind.write(out, q) })
	}
}

// render buffers nothing: documents are small, and a failure after the first
// byte can only be logged.
func (s *server) render(w http.ResponseWriter, r *http.Request, write func(io.Writer) error) {
	if err := write(w); err != nil {
		s.log.Error(r.Context(), "render response failed", logging.Err(err))
	}
}

// publish queues a telemetry snapshot for one served calculation.
func (s *server) publish(ctx context.Context, op string, cfg *model.Configuration, cost *model.CostResult, start time.Time, err error) {
	snap := telemetry.Snapshot{
		RequestID:  logging.RequestIDFromContext(ctx),
		Operation:  op,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000,
		Outcome:    outcomeOf(err),
	}
	if cfg != nil {
		snap.Configuration = cfg.Name
		snap.GridCode = cfg.Grid.Code()
		snap.Orientation = cfg.Dimensions.Orientation.String()
		snap.Accessories = accessoryList(cfg.Options)
		snap.Modules = cfg.Grid.SelectedCount()
	}
	if cost != nil {
		snap.TotalPacks = cost.TotalPacks
		snap.TotalCost = cost.TotalCost
	}
	s.telemetry.Publish(snap)
}

func accessoryList(o model.AccessoryOptions) string {
	var out []string
	if o.MC4Connectors {
		out = append(out, "mc4")
	}
	if o.SolarCable {
		out = append(out, "cable")
	}
	if o.WoodUnderlay {
		out = append(out, "wood")
	}
	if o.ExcludeModules {
		out = append(out, "no-modules")
	}
	return strings.Join(out, ",")
}

func decodeConfiguration(r *http.Request) (model.Configuration, error) {
	var payload dispatch.GridPayload
	if err := decodeBody(r, &payload); err != nil {
		return model.Configuration{}, err
	}
	cfg := payload.Configuration()
	cfg.Grid.Normalize()
	return cfg, nil
}

func decodeBody(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %v: %w", err, errBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fileName(name, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "solarrack"
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return name + "." + ext
}
