package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/JonMunkholm/feedsync/internal/config"
	"github.com/JonMunkholm/feedsync/internal/sheet"
)

func testConfig() *config.Config {
	return &config.Config{
		Sheets: config.SheetsConfig{
			ImportRange:   "Import",
			ControlRange:  "Control",
			DeliveryRange: "Delivery",
		},
		Feed: config.FeedConfig{
			TimeZone:           "Europe/Kyiv",
			DispatchCutoffHour: 14,
			MaxPayInParts:      3,
		},
	}
}

func testReader() *fakeReader {
	return &fakeReader{tables: map[string]sheet.Table{
		"Import": sheet.NewTable(
			[]string{"Артикул", "Назва", "Ціна"},
			[]string{"A1", "Lamp", "100"},
			[]string{"A2", "Chair", "200"},
		),
		"Control": sheet.NewTable(
			[]string{"Import field", "XML feed", "Feed name", "Tag name", "Units", "Stock feed"},
			[]string{"Артикул", "TRUE", "sku", "", "", "TRUE"},
			[]string{"Назва", "TRUE", "title", "", "", "FALSE"},
			[]string{"Ціна", "TRUE", "price", "", "", "TRUE"},
		),
		"Delivery": sheet.NewTable(
			[]string{"Method", "Active", "Price"},
			[]string{"Nova Poshta", "TRUE", "60"},
		),
	}}
}

func newTestService(t *testing.T, reader sheet.Reader, lookup InventoryLookup, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(testConfig(), reader, lookup, opts...)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestNewService_ConfigErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Sheets.ControlRange = ""
	_, err := NewService(cfg, testReader(), &fakeLookup{})
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Name != "SHEETS_CONTROL_RANGE" {
		t.Errorf("error = %v, want ConfigError for SHEETS_CONTROL_RANGE", err)
	}

	cfg = testConfig()
	cfg.Feed.TimeZone = "Mars/Olympus"
	_, err = NewService(cfg, testReader(), &fakeLookup{})
	if !errors.As(err, &ce) || ce.Name != "FEED_TIME_ZONE" {
		t.Errorf("error = %v, want ConfigError for FEED_TIME_ZONE", err)
	}
}

func TestService_OffersXML(t *testing.T) {
	history := &memHistory{}
	svc := newTestService(t, testReader(), &fakeLookup{}, WithHistory(history))

	ctx := ContextWithClient(context.Background(), "10.0.0.1", "curl/8")
	doc, err := svc.OffersXML(ctx)
	if err != nil {
		t.Fatalf("OffersXML() error = %v", err)
	}
	if !strings.Contains(string(doc), "<title>Lamp</title>") {
		t.Errorf("document missing title:\n%s", doc)
	}
	if got := strings.Count(string(doc), "<offer>"); got != 2 {
		t.Errorf("offers = %d, want 2", got)
	}

	if len(history.builds) != 1 {
		t.Fatalf("history builds = %d, want 1", len(history.builds))
	}
	b := history.builds[0]
	if b.Kind != KindOffers || b.Status != BuildOK || b.Entries != 2 {
		t.Errorf("build = %+v", b)
	}
	if b.IPAddress != "10.0.0.1" || b.UserAgent != "curl/8" {
		t.Errorf("client = %q %q, want 10.0.0.1 curl/8", b.IPAddress, b.UserAgent)
	}
	if b.ID == "" {
		t.Error("build ID should be set")
	}
}

func TestService_StockFeed(t *testing.T) {
	kyiv, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Fatal(err)
	}
	saturday := time.Date(2026, 10, 17, 9, 0, 0, 0, kyiv)
	reader := testReader()
	lookup := &fakeLookup{records: []InventoryRecord{{SKU: "A1", InStock: true, Source: SourceVariant}}}
	svc := newTestService(t, reader, lookup, WithClock(func() time.Time { return saturday }))

	feed, err := svc.StockFeed(context.Background())
	if err != nil {
		t.Fatalf("StockFeed() error = %v", err)
	}
	if feed.Total != 2 {
		t.Fatalf("total = %d, want 2", feed.Total)
	}
	for _, e := range feed.Data {
		if e.DaysToDispatch != 2 {
			t.Errorf("%s days_to_dispatch = %d, want 2", e.Code, e.DaysToDispatch)
		}
		if e.MaxPayInParts != 3 {
			t.Errorf("%s max_pay_in_parts = %d, want 3", e.Code, e.MaxPayInParts)
		}
		if len(e.DeliveryMethods) != 1 {
			t.Errorf("%s delivery methods = %+v", e.Code, e.DeliveryMethods)
		}
	}
	if !feed.Data[0].Availability || feed.Data[1].Availability {
		t.Errorf("availability = %v, %v; want true, false", feed.Data[0].Availability, feed.Data[1].Availability)
	}
	if len(reader.calls) != 3 {
		t.Errorf("ranges read = %v, want 3", reader.calls)
	}
	if len(lookup.calls) != 1 {
		t.Errorf("inventory lookups = %d, want 1", len(lookup.calls))
	}
}

func TestService_SheetErrorIsUpstream(t *testing.T) {
	reader := testReader()
	reader.errs = map[string]error{"Control": &sheet.RangeError{Range: "Control", Status: 403, Err: errors.New("forbidden")}}
	history := &memHistory{}
	lookup := &fakeLookup{}
	svc := newTestService(t, reader, lookup, WithHistory(history))

	_, err := svc.StockFeed(context.Background())
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if ue.Service != ServiceSheets || ue.Status != 403 {
		t.Errorf("upstream error = %+v", ue)
	}
	if HTTPStatus(err) != http.StatusBadGateway {
		t.Errorf("HTTPStatus = %d, want 502", HTTPStatus(err))
	}
	if len(lookup.calls) != 0 {
		t.Error("inventory must not be queried when a sheet read fails")
	}
	if len(history.builds) != 1 || history.builds[0].Status != BuildFailed || history.builds[0].Error == "" {
		t.Errorf("history = %+v, want one failed build", history.builds)
	}
}

func TestService_HistoryFailureDoesNotFailBuild(t *testing.T) {
	history := &memHistory{err: errors.New("db down")}
	svc := newTestService(t, testReader(), &fakeLookup{}, WithHistory(history))
	if _, err := svc.OffersXML(context.Background()); err != nil {
		t.Errorf("OffersXML() error = %v, want nil", err)
	}
}

func TestService_StockReport(t *testing.T) {
	lookup := &fakeLookup{records: []InventoryRecord{{SKU: "A2", InStock: false, Source: SourceProduct}}}
	svc := newTestService(t, testReader(), lookup)

	report, err := svc.StockReport(context.Background())
	if err != nil {
		t.Fatalf("StockReport() error = %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(report.Rows))
	}
	if report.Rows[0].Status != StatusNotFound || report.Rows[1].Status != StatusOutOfStock {
		t.Errorf("statuses = %s, %s", report.Rows[0].Status, report.Rows[1].Status)
	}
	if report.Rows[0].Name != "Lamp" {
		t.Errorf("name = %q, want Lamp", report.Rows[0].Name)
	}
}

type fakePublisher struct {
	name string
	body []byte
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, name string, body []byte) (PublishedFile, error) {
	p.name, p.body = name, body
	if p.err != nil {
		return PublishedFile{}, p.err
	}
	return PublishedFile{ID: "file-1", Name: name}, nil
}

func TestService_PublishOffers(t *testing.T) {
	svc := newTestService(t, testReader(), &fakeLookup{})

	pub := &fakePublisher{}
	file, err := svc.PublishOffers(context.Background(), pub, "offers.xml")
	if err != nil {
		t.Fatalf("PublishOffers() error = %v", err)
	}
	if file.ID != "file-1" || pub.name != "offers.xml" {
		t.Errorf("file = %+v, published name = %q", file, pub.name)
	}
	if !strings.HasPrefix(string(pub.body), "<?xml") {
		t.Errorf("published body = %q", pub.body)
	}

	pub = &fakePublisher{err: errors.New("quota exceeded")}
	_, err = svc.PublishOffers(context.Background(), pub, "offers.xml")
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Service != ServiceDrive {
		t.Errorf("error = %v, want drive upstream error", err)
	}
}

func TestService_RecentBuilds(t *testing.T) {
	svc := newTestService(t, testReader(), &fakeLookup{})
	builds, err := svc.RecentBuilds(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if builds == nil || len(builds) != 0 {
		t.Errorf("builds = %#v, want empty slice", builds)
	}
}

func TestService_BusyRejectsBuild(t *testing.T) {
	cfg := testConfig()
	cfg.Feed.MaxConcurrentBuilds = 1
	cfg.Feed.BuildWait = 10 * time.Millisecond
	reader := testReader()
	svc, err := NewService(cfg, reader, &fakeLookup{})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.limiter.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err = svc.OffersXML(context.Background())
	if !errors.Is(err, ErrTooManyBuilds) {
		t.Fatalf("OffersXML() error = %v, want ErrTooManyBuilds", err)
	}
	if len(reader.calls) != 0 {
		t.Errorf("ranges read = %v, want none", reader.calls)
	}

	svc.limiter.Release()
	if _, err := svc.OffersXML(context.Background()); err != nil {
		t.Errorf("OffersXML() after release error = %v", err)
	}
	if err := svc.WaitForBuilds(context.Background()); err != nil {
		t.Errorf("WaitForBuilds() = %v", err)
	}
}
