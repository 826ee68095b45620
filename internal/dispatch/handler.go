package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/piwi3910/SolarRack/internal/engine"
	"github.com/piwi3910/SolarRack/internal/model"
)

// HandleFunc turns a request into a response. Implementations must be pure so
// every executor produces the same bytes for the same request.
type HandleFunc func(ctx context.Context, req Request) Response

// GridPayload is the payload of the partition operations and one item of a
// batch. Missing dimensions fall back to the standard module.
type GridPayload struct {
	Name       string                 `json:"name,omitempty"`
	Grid       model.OccupancyGrid    `json:"grid"`
	Dimensions *model.CellDimensions  `json:"dimensions,omitempty"`
	Options    model.AccessoryOptions `json:"options"`
}

// Configuration converts the payload to a model configuration.
func (p GridPayload) Configuration() model.Configuration {
	dims := model.DefaultCellDimensions()
	if p.Dimensions != nil {
		dims = *p.Dimensions
	}
	return model.Configuration{Name: p.Name, Grid: p.Grid, Dimensions: dims, Options: p.Options}
}

// CostPayload is the payload of OpCostBundle.
type CostPayload struct {
	Parts model.PartsBundle `json:"parts"`
}

// BatchPayload is the payload of OpBatchCost.
type BatchPayload struct {
	Configurations []GridPayload `json:"configurations"`
}

// BatchItem is one priced configuration of a batch.
type BatchItem struct {
	Name  string            `json:"name,omitempty"`
	Parts model.PartsBundle `json:"parts"`
	Cost  model.CostResult  `json:"cost"`
}

// BatchResult is the result of OpBatchCost.
type BatchResult struct {
	Items      []BatchItem `json:"items"`
	TotalCost  float64     `json:"total_cost"`
	TotalPacks int         `json:"total_packs"`
}

// errBadRequest marks handler failures caused by the request content.
var errBadRequest = errors.New("bad request")

// Handler executes operations against a fixed pack catalog.
type Handler struct {
	catalog model.PackCatalog
}

// NewHandler returns a handler pricing against catalog. The catalog is only
// read, so one handler may serve many goroutines.
func NewHandler(catalog model.PackCatalog) *Handler {
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}
	return &Handler{catalog: catalog}
}

// Catalog returns the catalog the handler prices against.
func (h *Handler) Catalog() model.PackCatalog {
	return h.catalog
}

// Handle runs one request. Failures are reported in the response, never
// as a Go error.
func (h *Handler) Handle(_ context.Context, req Request) Response {
	var (
		result any
		err    error
	)
	switch req.Operation {
	case OpPartitionFullGrid:
		result, err = h.partition(req.Payload, false)
	case OpPartitionWithAccessories:
		result, err = h.partition(req.Payload, true)
	case OpCostBundle:
		result, err = h.cost(req.Payload)
	case OpBatchCost:
		result, err = h.batch(req.Payload)
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown operation %q", req.Operation), Code: CodeUnknownOperation}
	}
	if err != nil {
		code := CodeInternal
		if errors.Is(err, errBadRequest) || errors.Is(err, model.ErrInvalidDimension) {
			code = CodeInvalidArgument
		}
		return Response{ID: req.ID, Error: err.Error(), Code: code}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return Response{ID: req.ID, Error: fmt.Sprintf("encode result: %v", err), Code: CodeInternal}
	}
	return Response{ID: req.ID, Result: raw}
}

func (h *Handler) partition(payload json.RawMessage, withAccessories bool) (model.PartsBundle, error) {
	var p GridPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	cfg := p.Configuration()
	if !withAccessories {
		cfg.Options = model.AccessoryOptions{}
	}
	return engine.Calculate(cfg)
}

func (h *Handler) cost(payload json.RawMessage) (model.CostResult, error) {
	var p CostPayload
	if err := decode(payload, &p); err != nil {
		return model.CostResult{}, err
	}
	return model.CalculateCost(p.Parts, h.catalog), nil
}

func (h *Handler) batch(payload json.RawMessage) (BatchResult, error) {
	var p BatchPayload
	if err := decode(payload, &p); err != nil {
		return BatchResult{}, err
	}

	items := make([]BatchItem, 0, len(p.Configurations))
	costs := make([]model.CostResult, 0, len(p.Configurations))
	for i, c := range p.Configurations {
		parts, err := engine.Calculate(c.Configuration())
		if err != nil {
			return BatchResult{}, fmt.Errorf("configuration %d: %w", i, err)
		}
		cost := model.CalculateCost(parts, h.catalog)
		items = append(items, BatchItem{Name: c.Name, Parts: parts, Cost: cost})
		costs = append(costs, cost)
	}

	total := model.CalculateBatchCost(costs)
	return BatchResult{Items: items, TotalCost: total.TotalCost, TotalPacks: total.TotalPacks}, nil
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", errBadRequest)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: decode payload: %v", errBadRequest, err)
	}
	return nil
}
