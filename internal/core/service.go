package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/feedsync/internal/config"
	"github.com/JonMunkholm/feedsync/internal/logging"
	"github.com/JonMunkholm/feedsync/internal/sheet"
)

// Ranges names the three spreadsheet ranges a feed build reads.
type Ranges struct {
	Import   string
	Control  string
	Delivery string
}

// PublishedFile describes an uploaded feed file.
type PublishedFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// Publisher uploads a rendered feed under a file name.
type Publisher interface {
	Publish(ctx context.Context, name string, body []byte) (PublishedFile, error)
}

// Service builds feeds. It holds no per-request state; every call fetches
// and parses its inputs afresh.
type Service struct {
	reader        sheet.Reader
	inventory     InventoryLookup
	history       HistoryStore
	limiter       *BuildLimiter
	ranges        Ranges
	dispatch      DispatchPolicy
	maxPayInParts int
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for days_to_dispatch.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHistory records every build in h.
func WithHistory(h HistoryStore) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// NewService creates a Service from configuration and its collaborators.
func NewService(cfg *config.Config, reader sheet.Reader, inventory InventoryLookup, opts ...Option) (*Service, error) {
	if cfg.Sheets.ImportRange == "" {
		return nil, &ConfigError{Name: "SHEETS_IMPORT_RANGE"}
	}
	if cfg.Sheets.ControlRange == "" {
		return nil, &ConfigError{Name: "SHEETS_CONTROL_RANGE"}
	}
	if cfg.Sheets.DeliveryRange == "" {
		return nil, &ConfigError{Name: "SHEETS_DELIVERY_RANGE"}
	}
	loc, err := cfg.Feed.Location()
	if err != nil {
		return nil, &ConfigError{Name: "FEED_TIME_ZONE", Reason: err.Error()}
	}

	s := &Service{
		reader:    reader,
		inventory: inventory,
		history:   NopHistoryStore{},
		limiter:   NewBuildLimiter(cfg.Feed.MaxConcurrentBuilds, cfg.Feed.BuildWait),
		ranges: Ranges{
			Import:   cfg.Sheets.ImportRange,
			Control:  cfg.Sheets.ControlRange,
			Delivery: cfg.Sheets.DeliveryRange,
		},
		dispatch:      DispatchPolicy{Location: loc, CutoffHour: cfg.Feed.DispatchCutoffHour},
		maxPayInParts: cfg.Feed.MaxPayInParts,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// fetch reads ranges concurrently. The first failure cancels the rest.
func (s *Service) fetch(ctx context.Context, ranges ...string) ([]sheet.Table, error) {
	tables := make([]sheet.Table, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range ranges {
		g.Go(func() error {
			t, err := s.reader.GetRange(gctx, name)
			if err != nil {
				return WrapUpstream(ServiceSheets, "read "+name, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// OffersXML builds the offer feed document.
func (s *Service) OffersXML(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := s.track(ctx, KindOffers, func(ctx context.Context) (int, error) {
		tables, err := s.fetch(ctx, s.ranges.Import, s.ranges.Control)
		if err != nil {
			return 0, err
		}
		var n int
		doc, n = BuildOffersXML(tables[0], BuildControlMap(tables[1]))
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// StockFeed builds the stock feed. Sheets are read first, in parallel; the
// inventory lookup follows once the SKU column is known.
func (s *Service) StockFeed(ctx context.Context) (StockFeed, error) {
	var feed StockFeed
	err := s.track(ctx, KindStock, func(ctx context.Context) (int, error) {
		tables, err := s.fetch(ctx, s.ranges.Import, s.ranges.Control, s.ranges.Delivery)
		if err != nil {
			return 0, err
		}
		in := StockInput{
			Import:         tables[0],
			Controls:       BuildStockControlMap(tables[1]),
			FeedNames:      BuildFeedNameIndex(tables[1]),
			Delivery:       ParseDeliveryMethods(tables[2]),
			DaysToDispatch: s.dispatch.DaysToDispatch(s.now()),
			MaxPayInParts:  s.maxPayInParts,
		}
		feed, err = BuildStockFeed(ctx, in, s.inventory)
		if err != nil {
			return 0, err
		}
		return feed.Total, nil
	})
	if err != nil {
		return StockFeed{}, err
	}
	return feed, nil
}

// StockReport builds the operator stock report.
func (s *Service) StockReport(ctx context.Context) (*StockReport, error) {
	var report *StockReport
	err := s.track(ctx, KindReport, func(ctx context.Context) (int, error) {
		tables, err := s.fetch(ctx, s.ranges.Import, s.ranges.Control)
		if err != nil {
			return 0, err
		}
		report, err = BuildStockReport(ctx, tables[0], tables[1], s.inventory)
		if err != nil {
			return 0, err
		}
		return len(report.Rows), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// PublishOffers builds the offer feed and uploads it through pub.
func (s *Service) PublishOffers(ctx context.Context, pub Publisher, name string) (PublishedFile, error) {
	var file PublishedFile
	err := s.track(ctx, KindPublish, func(ctx context.Context) (int, error) {
		tables, err := s.fetch(ctx, s.ranges.Import, s.ranges.Control)
		if err != nil {
			return 0, err
		}
		doc, n := BuildOffersXML(tables[0], BuildControlMap(tables[1]))
		file, err = pub.Publish(ctx, name, doc)
		if err != nil {
			return 0, WrapUpstream(ServiceDrive, "publish "+name, err)
		}
		return n, nil
	})
	if err != nil {
		return PublishedFile{}, err
	}
	return file, nil
}

// RecentBuilds lists recorded feed builds, newest first.
func (s *Service) RecentBuilds(ctx context.Context, limit int) ([]FeedBuild, error) {
	return s.history.RecentBuilds(ctx, limit)
}

// WaitForBuilds blocks until running builds finish or ctx ends.
func (s *Service) WaitForBuilds(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// track runs one build, logs its outcome and records it in history.
// A history failure is logged and does not affect the build result.
func (s *Service) track(ctx context.Context, kind BuildKind, build func(context.Context) (int, error)) error {
	id := uuid.New().String()
	ctx, log := logging.WithBuild(ctx, id, string(kind))

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("feed build rejected", "error", err, "active", s.limiter.Active())
		return err
	}
	defer s.limiter.Release()

	start := s.now()

	entries, err := build(ctx)

	ip, ua := ClientFromContext(ctx)
	b := FeedBuild{
		ID:         id,
		Kind:       kind,
		Status:     BuildOK,
		Entries:    entries,
		DurationMS: s.now().Sub(start).Milliseconds(),
		IPAddress:  ip,
		UserAgent:  ua,
		CreatedAt:  start,
	}
	if err != nil {
		b.Status = BuildFailed
		b.Error = err.Error()
		log.Error("feed build failed", "error", err, "duration_ms", b.DurationMS)
	} else {
		log.Info("feed build completed", "entries", entries, "duration_ms", b.DurationMS)
	}

	if herr := s.history.RecordBuild(context.WithoutCancel(ctx), b); herr != nil {
		log.Warn("record feed build", "error", herr)
	}
	return err
}
