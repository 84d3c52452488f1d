package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	aggjob "github.com/Tab-and-Quill/spotify-music-history/internal/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/metrics"
	"github.com/google/uuid"
)

const defaultBufferSize = 16

// ErrClosed is returned by Submit once the worker has stopped.
var ErrClosed = errors.New("pipeline worker closed")

// Ingester stores validated files.
type Ingester interface {
	AddFile(ctx context.Context, name string, data []byte) (*v1.File, error)
	HasFiles(ctx context.Context) (bool, error)
}

// Querier reads and rebuilds summaries.
type Querier interface {
	Resolve(ctx context.Context, period string) (*aggregation.PeriodSummary, error)
	Keys(ctx context.Context) ([]string, error)
	Aggregate(ctx context.Context) (*aggjob.RunResult, error)
}

// Worker handles requests strictly one at a time, in submission order. Each
// request yields exactly one response on Responses. Submit never waits for
// the worker: pending requests queue without bound until Run picks them up.
type Worker struct {
	ingest Ingester
	query  Querier

	mu      sync.Mutex
	pending []Request
	closed  bool
	wake    chan struct{}

	responses chan Response
}

// NewWorker creates a worker whose Responses channel buffers bufferSize
// responses.
func NewWorker(ingest Ingester, query Querier, bufferSize int) *Worker {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Worker{
		ingest:    ingest,
		query:     query,
		wake:      make(chan struct{}, 1),
		responses: make(chan Response, bufferSize),
	}
}

// Responses delivers one response per request. It is closed when Run returns.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

// Submit queues a request and returns its ID, generating one when empty.
func (w *Worker) Submit(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", ErrClosed
	}
	w.pending = append(w.pending, req)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return req.ID, nil
}

// Pending returns the number of queued requests not yet picked up by Run.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// next pops the oldest pending request.
func (w *Worker) next() (Request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return Request{}, false
	}
	req := w.pending[0]
	w.pending[0] = Request{}
	w.pending = w.pending[1:]
	return req, true
}

func (w *Worker) stop() {
	w.mu.Lock()
	w.closed = true
	w.pending = nil
	w.mu.Unlock()
}

// Run processes queued requests until ctx is cancelled. Responses are only
// delivered while the caller drains Responses.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.responses)
	defer w.stop()

	slog.Info("[Worker] Started")
	for {
		if ctx.Err() != nil {
			slog.Info("[Worker] Stopping", "reason", ctx.Err())
			return
		}
		req, ok := w.next()
		if !ok {
			select {
			case <-ctx.Done():
				slog.Info("[Worker] Stopping", "reason", ctx.Err())
				return
			case <-w.wake:
				continue
			}
		}

		resp := w.Handle(ctx, req)
		select {
		case w.responses <- resp:
		case <-ctx.Done():
			slog.Info("[Worker] Stopping", "reason", ctx.Err(), "dropped_id", resp.ID)
			return
		}
	}
}

// Handle runs a single request synchronously.
func (w *Worker) Handle(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID, Type: req.Type}

	switch req.Type {
	case TypeAddFile:
		w.addFile(ctx, req, &resp)
	case TypeCheckAndAggregate:
		w.aggregate(ctx, &resp)
	case TypeCheckData:
		w.checkData(ctx, &resp)
	case TypeFetchKeys:
		w.fetchKeys(ctx, &resp)
	case TypeFetchAggregatedData:
		w.fetchAggregatedData(ctx, req, &resp)
	default:
		fail(&resp, fmt.Errorf("unknown request type %q", req.Type))
	}

	metrics.RecordPipelineRequest(string(req.Type), string(resp.Status))
	if resp.IsError() {
		slog.Warn("[Worker] Request failed", "id", req.ID, "type", req.Type, "error", resp.Message)
	}
	return resp
}

func (w *Worker) addFile(ctx context.Context, req Request, resp *Response) {
	file, err := w.ingest.AddFile(ctx, req.Name, req.Data)
	if err != nil {
		fail(resp, err)
		return
	}
	resp.Status = StatusFileAdded
	resp.File = &FileInfo{Name: file.Name, RecordCount: file.RecordCount, AddedAt: file.AddedAt}
}

func (w *Worker) aggregate(ctx context.Context, resp *Response) {
	res, err := w.query.Aggregate(ctx)
	if err != nil {
		fail(resp, err)
		return
	}
	resp.Status = StatusAggregationComplete
	resp.Results = res
}

func (w *Worker) checkData(ctx context.Context, resp *Response) {
	ok, err := w.ingest.HasFiles(ctx)
	if err != nil {
		fail(resp, err)
		return
	}
	resp.Status = StatusFileCountCheck
	resp.Results = ok
}

func (w *Worker) fetchKeys(ctx context.Context, resp *Response) {
	keys, err := w.query.Keys(ctx)
	if err != nil {
		fail(resp, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	resp.Status = StatusKeysFetched
	resp.Results = keys
}

func (w *Worker) fetchAggregatedData(ctx context.Context, req Request, resp *Response) {
	summary, err := w.query.Resolve(ctx, req.Filter)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			resp.Status = StatusNoAggregatedData
			return
		}
		fail(resp, err)
		return
	}
	resp.Status = StatusAggregatedData
	resp.Results = summary
}

func fail(resp *Response, err error) {
	resp.Status = StatusError
	resp.Message = err.Error()
}
