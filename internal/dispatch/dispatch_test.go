package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu        sync.Mutex
	outcomes  []string
	fallbacks []string
	timeouts  int
}

func (r *fakeRecorder) ObserveDispatch(op, path, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, path+":"+outcome)
}

func (r *fakeRecorder) IncFallback(_, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, reason)
}

func (r *fakeRecorder) IncTimeout(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts++
}

func (r *fakeRecorder) SetPending(int) {}

// blockingHandle waits for release before answering and reports each start.
func blockingHandle(started chan<- string, release <-chan struct{}) HandleFunc {
	h := NewHandler(model.DefaultCatalog())
	return func(ctx context.Context, req Request) Response {
		if started != nil {
			started <- req.ID
		}
		<-release
		return h.Handle(ctx, req)
	}
}

func sampleGrid() model.OccupancyGrid {
	return model.GridFromRows([][]bool{
		{true, true, true, false},
		{true, true, false, true},
		{false, true, true, true},
	})
}

func gridRequest(t *testing.T, id string, op Operation) Request {
	t.Helper()
	dims := model.DefaultCellDimensions()
	raw, err := json.Marshal(GridPayload{
		Grid:       sampleGrid(),
		Dimensions: &dims,
		Options:    model.AccessoryOptions{MC4Connectors: true, WoodUnderlay: true},
	})
	require.NoError(t, err)
	return Request{ID: id, Operation: op, Payload: raw}
}

func TestResultsIdenticalAcrossExecutionPaths(t *testing.T) {
	handler := NewHandler(model.DefaultCatalog())
	pool := NewWorkerPool(handler.Handle, PoolConfig{Workers: 3}, nil, nil)
	defer pool.Close()
	inline := NewInline(handler.Handle)

	for _, op := range []Operation{OpPartitionFullGrid, OpPartitionWithAccessories} {
		req := gridRequest(t, "same-id", op)

		viaPool, err := pool.Execute(context.Background(), req)
		require.NoError(t, err)
		viaInline, err := inline.Execute(context.Background(), req)
		require.NoError(t, err)

		assert.Empty(t, viaPool.Error)
		assert.Equal(t, string(viaInline.Result), string(viaPool.Result), op)
		assert.Equal(t, viaInline, viaPool)
	}
}

func TestDispatcherPartitionFullGrid(t *testing.T) {
	d := New(model.DefaultCatalog(), Options{})
	defer d.Close()

	grid := model.GridFromRows([][]bool{{true, true, true}})
	parts, err := d.PartitionFullGrid(context.Background(), grid, model.DefaultCellDimensions())
	require.NoError(t, err)

	assert.Equal(t, 3, parts.Get(model.PartModule))
	assert.Equal(t, 9, parts.Get(model.PartRoofHook))
	assert.Equal(t, 4, parts.Get(model.PartRailConnector))
	assert.True(t, parts.Has(model.PartGroundingStrap))
	assert.False(t, parts.Has(model.PartMC4Connector))
}

func TestDispatcherAccessoriesAndCost(t *testing.T) {
	d := New(model.DefaultCatalog(), Options{Workers: 1})
	defer d.Close()

	cfg := model.Configuration{
		Name:       "Shed",
		Grid:       model.GridFromRows([][]bool{{true, true, true}}),
		Dimensions: model.DefaultCellDimensions(),
		Options:    model.AccessoryOptions{SolarCable: true, ExcludeModules: true},
	}
	parts, err := d.PartitionWithAccessories(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, parts.Get(model.PartSolarCable))
	assert.False(t, parts.Has(model.PartModule))

	cost, err := d.CostBundle(context.Background(), parts)
	require.NoError(t, err)
	assert.Equal(t, model.CalculateCost(parts, model.DefaultCatalog()), cost)
}

func TestDispatcherBatchCost(t *testing.T) {
	d := New(model.DefaultCatalog(), Options{})
	defer d.Close()

	a := model.Configuration{Name: "A", Grid: model.GridFromRows([][]bool{{true}}), Dimensions: model.DefaultCellDimensions()}
	b := model.Configuration{Name: "B", Grid: sampleGrid(), Dimensions: model.DefaultCellDimensions()}

	res, err := d.BatchCost(context.Background(), []model.Configuration{a, b})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "A", res.Items[0].Name)
	assert.InDelta(t, res.Items[0].Cost.TotalCost+res.Items[1].Cost.TotalCost, res.TotalCost, 0.005)
	assert.Equal(t, res.Items[0].Cost.TotalPacks+res.Items[1].Cost.TotalPacks, res.TotalPacks)
}

func TestDispatcherTimeoutFallsBackInline(t *testing.T) {
	release := make(chan struct{})
	pool := NewWorkerPool(blockingHandle(nil, release), PoolConfig{Workers: 1}, nil, nil)
	defer func() {
		close(release)
		pool.Close()
	}()
	rec := &fakeRecorder{}

	d := New(model.DefaultCatalog(), Options{Timeout: 20 * time.Millisecond, Primary: pool, Metrics: rec})

	parts, err := d.PartitionFullGrid(context.Background(), sampleGrid(), model.DefaultCellDimensions())
	require.NoError(t, err)
	assert.Equal(t, 9, parts.Get(model.PartModule))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"timeout"}, rec.fallbacks)
	assert.Equal(t, 1, rec.timeouts)
	assert.Equal(t, []string{"inline:ok"}, rec.outcomes)
}

func TestDispatcherTimeoutWithoutFallback(t *testing.T) {
	release := make(chan struct{})
	pool := NewWorkerPool(blockingHandle(nil, release), PoolConfig{Workers: 1}, nil, nil)
	defer func() {
		close(release)
		pool.Close()
	}()

	d := New(model.DefaultCatalog(), Options{Timeout: 10 * time.Millisecond, Primary: pool, DisableFallback: true})

	_, err := d.Dispatch(context.Background(), OpCostBundle, CostPayload{Parts: model.PartsBundle{model.PartEndCap: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWorkerPoolDropsLateResponses(t *testing.T) {
	started := make(chan string, 4)
	release := make(chan struct{})
	pool := NewWorkerPool(blockingHandle(started, release), PoolConfig{Workers: 1}, nil, nil)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := pool.Execute(ctx, gridRequest(t, "late", OpPartitionFullGrid))
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "late", <-started)
	assert.Zero(t, pool.Pending(), "abandoned request must leave the pending table")

	// The computation was not cancelled: releasing it lets the worker finish,
	// its response is dropped and the pool keeps serving.
	close(release)

	resp, err := pool.Execute(context.Background(), gridRequest(t, "next", OpPartitionFullGrid))
	require.NoError(t, err)
	assert.Equal(t, "next", resp.ID)
	assert.Equal(t, "next", <-started)
	assert.Zero(t, pool.Pending())
}

func TestWorkerPoolSaturation(t *testing.T) {
	started := make(chan string, 4)
	release := make(chan struct{})
	pool := NewWorkerPool(blockingHandle(started, release), PoolConfig{Workers: 1, QueueSize: 1}, nil, nil)
	defer pool.Close()

	var wg sync.WaitGroup
	for _, req := range []Request{gridRequest(t, "a", OpPartitionFullGrid), gridRequest(t, "b", OpPartitionFullGrid)} {
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			_, _ = pool.Execute(context.Background(), req)
		}(req)
		if req.ID == "a" {
			require.Equal(t, "a", <-started)
		}
	}
	require.Eventually(t, func() bool { return len(pool.requests) == 1 }, time.Second, time.Millisecond)

	_, err := pool.Execute(context.Background(), gridRequest(t, "c", OpPartitionFullGrid))
	assert.ErrorIs(t, err, ErrUnavailable)

	close(release)
	wg.Wait()
}

func TestWorkerPoolClosed(t *testing.T) {
	pool := NewWorkerPool(NewHandler(nil).Handle, PoolConfig{}, nil, nil)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err := pool.Execute(context.Background(), gridRequest(t, "x", OpPartitionFullGrid))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWorkerPoolCloseReleasesWaiters(t *testing.T) {
	started := make(chan string, 1)
	release := make(chan struct{})
	pool := NewWorkerPool(blockingHandle(started, release), PoolConfig{Workers: 1}, nil, nil)

	req := gridRequest(t, "w", OpPartitionFullGrid)
	errc := make(chan error, 1)
	go func() {
		_, err := pool.Execute(context.Background(), req)
		errc <- err
	}()
	<-started

	closed := make(chan struct{})
	go func() {
		pool.Close()
		close(closed)
	}()

	assert.ErrorIs(t, <-errc, ErrUnavailable)
	close(release)
	<-closed
}

func TestDispatcherFallsBackWhenPrimaryUnavailable(t *testing.T) {
	pool := NewWorkerPool(NewHandler(nil).Handle, PoolConfig{}, nil, nil)
	require.NoError(t, pool.Close())
	rec := &fakeRecorder{}

	d := New(model.DefaultCatalog(), Options{Primary: pool, Metrics: rec, DisableFallback: true})

	parts, err := d.PartitionFullGrid(context.Background(), sampleGrid(), model.DefaultCellDimensions())
	require.NoError(t, err, "an unavailable primary always falls back")
	assert.Equal(t, 9, parts.Get(model.PartModule))
	assert.Equal(t, []string{"unavailable"}, rec.fallbacks)
}

func TestDispatcherInlineOnly(t *testing.T) {
	d := New(nil, Options{Workers: -1})
	defer d.Close()

	_, err := d.CostBundle(context.Background(), model.PartsBundle{model.PartEndCap: 51})
	require.NoError(t, err)
	assert.Nil(t, d.pool)
}

func TestDispatcherRemoteErrors(t *testing.T) {
	d := New(model.DefaultCatalog(), Options{})
	defer d.Close()

	bad := model.Configuration{Grid: sampleGrid(), Dimensions: model.CellDimensions{Width: -1, Height: 113}}
	_, err := d.PartitionWithAccessories(context.Background(), bad)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote), "expected RemoteError, got %v", err)
	assert.Equal(t, CodeInvalidArgument, remote.Code)
	assert.True(t, remote.InvalidArgument())
	assert.Contains(t, remote.Message, "invalid dimension")

	_, err = d.Dispatch(context.Background(), "draw-roof", json.RawMessage(`{}`))
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, CodeUnknownOperation, remote.Code)
}

func TestHandlerPayloadErrors(t *testing.T) {
	h := NewHandler(nil)

	resp := h.Handle(context.Background(), Request{ID: "1", Operation: OpCostBundle})
	assert.Equal(t, CodeInvalidArgument, resp.Code)
	assert.Equal(t, "1", resp.ID)

	resp = h.Handle(context.Background(), Request{ID: "2", Operation: OpCostBundle, Payload: json.RawMessage(`{"parts":[1]}`)})
	assert.Equal(t, CodeInvalidArgument, resp.Code)
	assert.Nil(t, resp.Result)
}

func TestHandlerRejectsOversizedGrid(t *testing.T) {
	h := NewHandler(nil)
	for _, op := range []Operation{OpPartitionFullGrid, OpPartitionWithAccessories} {
		payload := json.RawMessage(`{"grid":{"rows":25000,"cols":25000,"cells":[[true,true],[true,true]]}}`)
		resp := h.Handle(context.Background(), Request{ID: "big", Operation: op, Payload: payload})
		assert.Equal(t, CodeInvalidArgument, resp.Code, op)
		assert.Contains(t, resp.Error, "outside 0..1000")
	}

	batch := json.RawMessage(`{"configurations":[{"grid":{"rows":2,"cols":5000}}]}`)
	resp := h.Handle(context.Background(), Request{ID: "batch", Operation: OpBatchCost, Payload: batch})
	assert.Equal(t, CodeInvalidArgument, resp.Code)
}

func TestHandlerAcceptsLenientGrid(t *testing.T) {
	h := NewHandler(nil)
	payload := json.RawMessage(`{"grid":[[true,true,true],null,["x"]]}`)

	resp := h.Handle(context.Background(), Request{ID: "1", Operation: OpPartitionFullGrid, Payload: payload})
	require.Empty(t, resp.Error)

	var parts model.PartsBundle
	require.NoError(t, json.Unmarshal(resp.Result, &parts))
	assert.Equal(t, 3, parts.Get(model.PartModule))
}

// echoHandle answers with the request payload, holding "slow" payloads until
// release is closed.
func echoHandle(release <-chan struct{}) HandleFunc {
	return func(_ context.Context, req Request) Response {
		if string(req.Payload) == `"slow"` {
			<-release
		}
		return Response{ID: req.ID, Result: req.Payload}
	}
}

func TestWorkerPoolRetriedIDGetsItsOwnResult(t *testing.T) {
	release := make(chan struct{})
	pool := NewWorkerPool(echoHandle(release), PoolConfig{Workers: 1}, nil, nil)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Execute(ctx, Request{ID: "client-id", Operation: OpCostBundle, Payload: json.RawMessage(`"slow"`)})
	require.ErrorIs(t, err, ErrTimeout)

	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := pool.Execute(context.Background(), Request{ID: "client-id", Operation: OpCostBundle, Payload: json.RawMessage(`"fast"`)})
		done <- outcome{resp, err}
	}()
	require.Eventually(t, func() bool { return pool.Pending() == 1 }, time.Second, time.Millisecond)
	close(release)

	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, "client-id", got.resp.ID)
	assert.JSONEq(t, `"fast"`, string(got.resp.Result))
}

func TestWorkerPoolConcurrentDuplicateIDs(t *testing.T) {
	pool := NewWorkerPool(echoHandle(nil), PoolConfig{Workers: 2}, nil, nil)
	defer pool.Close()

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload, _ := json.Marshal(i)
			resp, err := pool.Execute(context.Background(), Request{ID: "same", Operation: OpCostBundle, Payload: payload})
			if assert.NoError(t, err) {
				assert.Equal(t, "same", resp.ID)
				results[i] = string(resp.Result)
			}
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		assert.Equal(t, fmt.Sprint(i), r)
	}
}
