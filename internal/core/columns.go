package core

import "github.com/JonMunkholm/feedsync/internal/sheet"

// ColumnCandidate is one way to locate a column. FeedName resolves through
// the control table to an import field; Header is a literal header name.
type ColumnCandidate struct {
	FeedName string
	Header   string
}

// ColumnPolicy is an ordered list of candidates. The first candidate that
// names an existing column wins.
type ColumnPolicy struct {
	Name       string
	Candidates []ColumnCandidate
}

// Resolve returns the column position, or -1 when no candidate matches.
func (p ColumnPolicy) Resolve(header sheet.HeaderIndex, feedNames FeedNameIndex) int {
	for _, c := range p.Candidates {
		name := c.Header
		if c.FeedName != "" {
			name = feedNames[c.FeedName]
		}
		if name == "" {
			continue
		}
		if i := header.Lookup(name); i >= 0 {
			return i
		}
	}
	return -1
}

// Column policies used by the stock feed and reports.
var (
	SKUColumn = ColumnPolicy{Name: "SKU", Candidates: []ColumnCandidate{
		{FeedName: "sku"},
		{Header: "SKU"},
	}}
	NameColumn = ColumnPolicy{Name: "Name", Candidates: []ColumnCandidate{
		{FeedName: "name"},
		{FeedName: "title"},
		{Header: "Name"},
		{Header: "Title"},
	}}
	PriceColumn = ColumnPolicy{Name: "Price", Candidates: []ColumnCandidate{
		{FeedName: "price"},
		{Header: "Price"},
	}}
	CodeColumn = ColumnPolicy{Name: "code", Candidates: []ColumnCandidate{
		{FeedName: "code"},
		{Header: "code"},
	}}
)
