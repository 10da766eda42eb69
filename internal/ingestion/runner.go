package ingestion

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/idhash"
	"equity-events-lab/internal/loader"
	"equity-events-lab/internal/observability"
	"equity-events-lab/internal/storage"
)

// Runner orchestrates continuous ingestion from the vendor feed.
//
// Records are buffered per knowledge date and written once the date is
// finalized (behind the highest date seen by the lag window), so a day's
// records land in deterministic order even when the feed delivers them
// interleaved across datasets.
type Runner struct {
	feed          *FeedClient
	store         storage.EventRecordStore
	datasets      map[string]loader.DatasetConfig
	lagDays       int32         // knowledge dates to hold back for ordering
	flushInterval time.Duration // interval for periodic buffer flush
	logger        *log.Logger

	buffer      map[domain.Date][]*domain.EventRecord
	highestSeen domain.Date
	buffered    int
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Feed          *FeedClient
	Store         storage.EventRecordStore
	Datasets      []loader.DatasetConfig
	LagDays       int32         // Default: 1 day
	FlushInterval time.Duration // Default: 5s
	Logger        *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	lagDays := opts.LagDays
	if lagDays == 0 {
		lagDays = 1
	}

	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	datasets := make(map[string]loader.DatasetConfig, len(opts.Datasets))
	for _, cfg := range opts.Datasets {
		datasets[cfg.Name] = cfg
	}

	return &Runner{
		feed:          opts.Feed,
		store:         opts.Store,
		datasets:      datasets,
		lagDays:       lagDays,
		flushInterval: flushInterval,
		logger:        logger,
		buffer:        make(map[domain.Date][]*domain.EventRecord),
	}
}

// Run starts continuous ingestion. It blocks until the context is
// cancelled or every subscription channel closes.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Println("[ingestion] starting runner...")

	merged := make(chan *domain.EventRecord, 1000)
	var wg sync.WaitGroup

	for name := range r.datasets {
		ch, err := r.feed.Subscribe(ctx, name)
		if err != nil {
			return err
		}
		r.logger.Printf("[ingestion] subscribed to dataset %s", name)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range ch {
				select {
				case merged <- rec:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	r.logger.Printf("[ingestion] runner started, lag window: %d days, flush interval: %v",
		r.lagDays, r.flushInterval)

	for {
		select {
		case <-ctx.Done():
			// Flush all remaining records before shutdown
			r.flushAll(ctx)
			r.logger.Println("[ingestion] runner stopping...")
			return ctx.Err()

		case rec, ok := <-merged:
			if !ok {
				r.flushAll(ctx)
				r.logger.Println("[ingestion] feed channels closed")
				return errors.New("feed channels closed")
			}
			r.bufferRecord(ctx, rec)

		case <-flushTicker.C:
			// Periodic flush: write finalized dates even when no newer
			// knowledge dates arrive. flushAll is only used on shutdown,
			// when ordering no longer matters.
			r.processFinalized(ctx)
			observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
		}
	}
}

// bufferRecord finalizes a record's identity and adds it to the
// knowledge-date buffer.
func (r *Runner) bufferRecord(ctx context.Context, rec *domain.EventRecord) {
	cfg, ok := r.datasets[rec.Dataset]
	if !ok {
		observability.RecordDropped(rec.Dataset, "unknown_dataset")
		return
	}
	observability.RecordReceived(rec.Dataset)

	if err := cfg.ApplyKnowledgeConflation(rec); err != nil {
		r.logger.Printf("[ingestion] dropping record: %v", err)
		observability.RecordDropped(rec.Dataset, "no_knowledge_date")
		return
	}
	if rec.RecordID == "" {
		rec.RecordID = idhash.ComputeRecordID(rec)
	}

	kd := rec.KnowledgeDate
	r.buffer[kd] = append(r.buffer[kd], rec)
	r.buffered++
	observability.DefaultMetrics.IngestBufferSize.Set(float64(r.buffered))

	if kd > r.highestSeen {
		r.highestSeen = kd
		observability.DefaultMetrics.HighestKnowledgeDate.Set(float64(kd))
		r.processFinalized(ctx)
	} else if kd <= r.highestSeen-domain.Date(r.lagDays) {
		// Late record for an already-finalized date: write immediately
		r.processDate(ctx, kd)
	}
}

// processFinalized writes out every buffered date behind the lag window.
func (r *Runner) processFinalized(ctx context.Context) {
	finalized := r.highestSeen - domain.Date(r.lagDays)

	var dates []domain.Date
	for d := range r.buffer {
		if d <= finalized {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	for _, d := range dates {
		r.processDate(ctx, d)
	}
}

// processDate writes all records of one knowledge date in deterministic
// order.
func (r *Runner) processDate(ctx context.Context, d domain.Date) {
	records, ok := r.buffer[d]
	if !ok || len(records) == 0 {
		return
	}

	// Sort by (dataset, record_id) within the date
	sort.Slice(records, func(i, j int) bool {
		if records[i].Dataset != records[j].Dataset {
			return records[i].Dataset < records[j].Dataset
		}
		return records[i].RecordID < records[j].RecordID
	})

	for _, rec := range records {
		if err := r.store.Insert(ctx, rec); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				// Re-delivered vendor row, expected
				observability.RecordDropped(rec.Dataset, "duplicate")
				continue
			}
			r.logger.Printf("[ingestion] error storing record %s: %v", rec.RecordID, err)
			observability.DefaultMetrics.IngestProcessingErrors.
				WithLabelValues(rec.Dataset, "store").Inc()
			continue
		}
		observability.RecordStored(rec.Dataset, 1)
	}

	r.buffered -= len(records)
	delete(r.buffer, d)
	observability.DefaultMetrics.IngestBufferSize.Set(float64(r.buffered))
}

// flushAll writes all remaining buffered records on shutdown.
func (r *Runner) flushAll(ctx context.Context) {
	var dates []domain.Date
	for d := range r.buffer {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	for _, d := range dates {
		r.processDate(ctx, d)
	}
}
