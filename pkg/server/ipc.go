package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Soheybfa/cities-api/pkg/query"
	"github.com/Soheybfa/cities-api/pkg/store"
)

// IPC serves the search API as a stream of MessagePack messages, one
// request and one response per value. It exists for editor and sidecar
// integrations that spawn the service as a child process.
type IPC struct {
	engine *query.Engine
	kv     store.KV
	dec    *msgpack.Decoder
	enc    *msgpack.Encoder
}

// NewIPC builds an IPC server reading requests from r and writing
// responses to w.
func NewIPC(engine *query.Engine, kv store.KV, r io.Reader, w io.Writer) *IPC {
	return &IPC{
		engine: engine,
		kv:     kv,
		dec:    msgpack.NewDecoder(r),
		enc:    msgpack.NewEncoder(w),
	}
}

// Start processes requests until the input stream ends or ctx is canceled.
func (s *IPC) Start(ctx context.Context) error {
	log.Debug("ipc server ready")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		s.dispatch(ctx, req)
	}
}

func (s *IPC) dispatch(ctx context.Context, req Request) {
	switch req.Op {
	case "search":
		s.handleSearch(ctx, req)
	case "autocomplete":
		s.handleAutocomplete(ctx, req)
	case "get":
		s.handleGet(ctx, req)
	case "health":
		s.handleHealth(ctx, req)
	default:
		s.sendError(req.ID, "unknown op: "+req.Op, http.StatusBadRequest)
	}
}

func (s *IPC) handleSearch(ctx context.Context, req Request) {
	start := time.Now()
	result, err := s.engine.Search(ctx, req.Query, req.Limit)
	if err != nil {
		s.sendQueryError(req.ID, err)
		return
	}

	results := make([][]byte, len(result.Records))
	for i, rec := range result.Records {
		results[i] = rec
	}
	s.send(SearchResponse{
		ID:        req.ID,
		Query:     result.Query,
		Count:     result.Count,
		Results:   results,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *IPC) handleAutocomplete(ctx context.Context, req Request) {
	start := time.Now()
	suggestions, err := s.engine.Autocomplete(ctx, req.Query, req.Limit)
	if err != nil {
		s.sendQueryError(req.ID, err)
		return
	}
	s.send(AutocompleteResponse{
		ID:          req.ID,
		Query:       suggestions.Query,
		Suggestions: suggestions.Names,
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *IPC) handleGet(ctx context.Context, req Request) {
	record, err := s.engine.GetByID(ctx, req.RecordID)
	if errors.Is(err, store.ErrNotFound) {
		s.sendError(req.ID, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("fetching record %d: %v", req.RecordID, err)
		s.sendError(req.ID, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	s.send(RecordResponse{ID: req.ID, Record: record})
}

func (s *IPC) handleHealth(ctx context.Context, req Request) {
	if err := s.kv.Ping(ctx); err != nil {
		s.sendError(req.ID, "store unreachable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	totalKeys, err := s.kv.DBSize(ctx)
	if err != nil {
		log.Warnf("counting keys: %v", err)
	}
	s.send(HealthResponse{ID: req.ID, Status: "ok", TotalKeys: totalKeys})
}

func (s *IPC) sendQueryError(id string, err error) {
	if errors.Is(err, query.ErrEmptyQuery) {
		s.sendError(id, "missing query", http.StatusBadRequest)
		return
	}
	log.Errorf("query failed: %v", err)
	s.sendError(id, "store unavailable", http.StatusServiceUnavailable)
}

func (s *IPC) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}

func (s *IPC) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}
