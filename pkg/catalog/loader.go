package catalog

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/Soheybfa/cities-api/internal/logger"
	"github.com/Soheybfa/cities-api/pkg/store"
)

// DefaultBatchSize is the number of records whose writes are grouped into
// one flush. A record of L runes costs L+2 writes (record, name set, L
// prefix sets), so total write volume scales with records times average
// name length; batching keeps the per-round-trip overhead bounded.
const DefaultBatchSize = 1000

// Loader populates the record store, the exact-name index and the prefix
// index from a catalog source. A load is a full rebuild: rerunning it over
// the same input issues the same deterministic writes and converges to the
// same state, since set membership deduplicates.
type Loader struct {
	kv        store.KV
	batchSize int
	onFlush   []func()
	log       *log.Logger
}

// NewLoader returns a loader writing through kv. A non-positive batchSize
// falls back to DefaultBatchSize.
func NewLoader(kv store.KV, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{kv: kv, batchSize: batchSize, log: logger.New("loader")}
}

// AfterFlush registers fn to run after every successful batch flush. The
// query engine hooks its hot cache invalidation here.
func (l *Loader) AfterFlush(fn func()) {
	l.onFlush = append(l.onFlush, fn)
}

// Load ingests the catalog from r and returns the number of records
// written. Malformed records were already skipped during parsing; any
// transport failure while flushing a batch aborts the load, and the caller
// is expected to rerun it from scratch.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	records, err := Parse(r)
	if err != nil {
		return 0, err
	}
	return l.LoadRecords(ctx, records)
}

// LoadRecords writes an already-parsed collection.
func (l *Loader) LoadRecords(ctx context.Context, records []Record) (int, error) {
	total := len(records)
	batch := l.kv.NewBatch()
	loaded := 0

	for _, rec := range records {
		l.index(batch, rec)
		loaded++

		if loaded%l.batchSize == 0 {
			if err := l.flush(ctx, batch); err != nil {
				return 0, err
			}
			l.log.Infof("processed %d/%d records", loaded, total)
			batch = l.kv.NewBatch()
		}
	}

	if err := l.flush(ctx, batch); err != nil {
		return 0, err
	}

	l.log.Infof("loaded %d records", loaded)
	return loaded, nil
}

// index queues the full write set for one record: the serialized record
// under its id, the id under its normalized name, and the id under every
// prefix of that name.
func (l *Loader) index(batch store.Batch, rec Record) {
	member := strconv.FormatInt(rec.ID, 10)
	normalized := rec.NormalizedName()

	batch.Put(store.RecordKey(rec.ID), rec.Raw)
	batch.SAdd(store.NameKey(normalized), member)
	for _, prefix := range Prefixes(normalized) {
		batch.SAdd(store.PrefixKey(prefix), member)
	}
}

func (l *Loader) flush(ctx context.Context, batch store.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	if err := batch.Flush(ctx); err != nil {
		return fmt.Errorf("flushing batch: %w", err)
	}
	for _, fn := range l.onFlush {
		fn()
	}
	return nil
}
