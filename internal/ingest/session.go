// Package ingest pages through the recent engagements endpoint and writes
// every page to the database.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/TheF1rstPancake/hubspot/internal/hubspot"
	"github.com/TheF1rstPancake/hubspot/internal/metrics"
	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// DefaultPageSize is the number of engagements requested per page.
const DefaultPageSize = hubspot.MaxPageSize

// Fetcher returns one page of engagements.
type Fetcher interface {
	RecentEngagements(ctx context.Context, offset, count int) (hubspot.Page, error)
}

// Writer persists a batch of rows.
type Writer interface {
	WriteRows(ctx context.Context, table string, rows []storage.Row) (int64, error)
}

// State is the position of a Session in its fetch/write cycle.
type State int

const (
	StateFetching State = iota
	StateWriting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Stats summarises a run.
type Stats struct {
	Pages      int
	Fetched    int
	Inserted   int64
	Duplicates int
}

// Options configures a Session. Zero values get defaults.
type Options struct {
	Table    string
	PageSize int
	// Job labels emitted metrics.
	Job    string
	Logger zerolog.Logger
}

// Session carries all loop state for one ingestion run. It is not safe for
// concurrent use.
type Session struct {
	fetch    Fetcher
	write    Writer
	table    string
	pageSize int
	job      string
	log      zerolog.Logger

	page  int
	state State
	stats Stats
	// seen maps engagement id to the fingerprint of its first payload.
	seen map[int64]uint64
}

// NewSession builds a session in StateFetching at page 0.
func NewSession(f Fetcher, w Writer, opts Options) *Session {
	if opts.Table == "" {
		opts.Table = "engagements"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Job == "" {
		opts.Job = "hubetl"
	}
	return &Session{
		fetch:    f,
		write:    w,
		table:    opts.Table,
		pageSize: opts.PageSize,
		job:      opts.Job,
		log:      opts.Logger,
		state:    StateFetching,
		seen:     make(map[int64]uint64),
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Stats returns the counters accumulated so far.
func (s *Session) Stats() Stats { return s.stats }

// Run fetches pages at offsets 0, pageSize, 2*pageSize, ... and writes each
// one until a page reports no more results. The first error stops the run;
// rows committed by earlier pages stay committed.
func (s *Session) Run(ctx context.Context) (Stats, error) {
	for s.state != StateDone {
		if err := s.step(ctx); err != nil {
			s.state = StateDone
			return s.stats, err
		}
	}
	return s.stats, nil
}

func (s *Session) step(ctx context.Context) error {
	offset := s.page * s.pageSize

	start := time.Now()
	page, err := s.fetch.RecentEngagements(ctx, offset, s.pageSize)
	metrics.RecordStep(s.job, "fetch", err, time.Since(start))
	metrics.RecordRequest(s.job, hubspot.RecentEngagementsPath, err)
	if err != nil {
		return errors.Wrapf(err, "fetch engagements at offset %d", offset)
	}
	s.stats.Pages++
	s.stats.Fetched += page.Count
	metrics.RecordPages(s.job, 1)
	metrics.RecordRow(s.job, metrics.KindFetched, int64(page.Count))

	s.state = StateWriting
	rows := make([]storage.Row, 0, len(page.Engagements))
	for _, e := range page.Engagements {
		s.track(e)
		rows = append(rows, storage.Row(e))
	}

	s.log.Info().Int("page", s.page).Int("offset", offset).Int("rows", len(rows)).Msg("Writing data")
	start = time.Now()
	n, err := s.write.WriteRows(ctx, s.table, rows)
	metrics.RecordStep(s.job, "write", err, time.Since(start))
	if err != nil {
		return errors.Wrapf(err, "write page %d", s.page)
	}
	s.stats.Inserted += n
	metrics.RecordRow(s.job, metrics.KindInserted, n)

	s.page++
	if page.HasMore {
		s.state = StateFetching
	} else {
		s.state = StateDone
	}
	return nil
}

// track flags ids already seen in this run. The row is still written, so a
// duplicate surfaces as the database's primary key violation.
func (s *Session) track(e hubspot.Engagement) {
	id, ok := e.ID()
	if !ok {
		return
	}
	fp := fingerprint(e)
	prev, dup := s.seen[id]
	if !dup {
		s.seen[id] = fp
		return
	}
	s.stats.Duplicates++
	metrics.RecordRow(s.job, metrics.KindDuplicates, 1)
	s.log.Warn().
		Int64("id", id).
		Int("page", s.page).
		Bool("changed", prev != fp).
		Msg("engagement returned by an earlier page")
}

// fingerprint hashes the canonical JSON of e. encoding/json sorts map keys,
// so equal payloads hash equally.
func fingerprint(e hubspot.Engagement) uint64 {
	b, err := json.Marshal(e)
	if err != nil {
		return 0
	}
	return xxh3.Hash(b)
}
