package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

// fakeReader serves fixed tables by range name.
type fakeReader struct {
	mu     sync.Mutex
	tables map[string]sheet.Table
	errs   map[string]error
	calls  []string
}

func (r *fakeReader) GetRange(ctx context.Context, name string) (sheet.Table, error) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()

	if err, ok := r.errs[name]; ok {
		return sheet.Table{}, err
	}
	t, ok := r.tables[name]
	if !ok {
		return sheet.Table{}, fmt.Errorf("unknown range %q", name)
	}
	return t, nil
}

// fakeLookup returns fixed records and remembers every request.
type fakeLookup struct {
	records []InventoryRecord
	err     error
	calls   [][]string
}

func (l *fakeLookup) GetInventory(ctx context.Context, skus []string) ([]InventoryRecord, error) {
	l.calls = append(l.calls, append([]string(nil), skus...))
	if l.err != nil {
		return nil, l.err
	}
	return l.records, nil
}

// memHistory keeps builds in memory.
type memHistory struct {
	mu     sync.Mutex
	builds []FeedBuild
	err    error
}

func (h *memHistory) RecordBuild(ctx context.Context, b FeedBuild) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.builds = append(h.builds, b)
	return nil
}

func (h *memHistory) RecentBuilds(ctx context.Context, limit int) ([]FeedBuild, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]FeedBuild, 0, len(h.builds))
	for i := len(h.builds) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.builds[i])
	}
	return out, nil
}

func (h *memHistory) PurgeBuilds(ctx context.Context, olderThanDays int) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := int64(len(h.builds))
	h.builds = nil
	return n, nil
}
