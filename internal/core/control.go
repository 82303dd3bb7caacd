package core

import (
	"strings"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

// Channel is the output routing of a control entry.
type Channel int

const (
	ChannelCore Channel = iota
	ChannelImage
	ChannelTag
	ChannelParam
	ChannelStock
)

func (c Channel) String() string {
	switch c {
	case ChannelCore:
		return "core"
	case ChannelImage:
		return "image"
	case ChannelTag:
		return "tag"
	case ChannelParam:
		return "param"
	case ChannelStock:
		return "stock"
	default:
		return "unknown"
	}
}

const (
	// ImagePrefix marks target names routed to <picture> entries.
	ImagePrefix = "image_"

	// TagChannel is the target name routed through ProcessTagValue.
	TagChannel = "tags"
)

// coreFields have a fixed top-level element in the offer feed.
var coreFields = map[string]bool{
	"id": true, "code": true, "vendor_code": true, "title": true,
	"barcode": true, "category": true, "category_id": true, "brand": true,
	"availability": true, "weight": true, "height": true, "width": true,
	"length": true, "description": true,
}

// IsCoreField reports whether targetName is in the closed core field set.
func IsCoreField(targetName string) bool {
	return coreFields[targetName]
}

// Classify derives the offer-feed channel from a target name.
func Classify(targetName string) Channel {
	switch {
	case IsCoreField(targetName):
		return ChannelCore
	case strings.HasPrefix(targetName, ImagePrefix):
		return ChannelImage
	case targetName == TagChannel:
		return ChannelTag
	default:
		return ChannelParam
	}
}

// ControlEntry describes how one Import column feeds the output.
type ControlEntry struct {
	Enabled    bool
	TargetName string
	TagName    string
	Unit       string
	Channel    Channel
}

// ControlMap is keyed by trimmed import-field name.
type ControlMap map[string]ControlEntry

// Lookup returns the enabled entry for header, if any.
func (m ControlMap) Lookup(header string) (ControlEntry, bool) {
	e, ok := m[header]
	if !ok || !e.Enabled {
		return ControlEntry{}, false
	}
	return e, true
}

// ControlLayout holds the column positions of the control table.
type ControlLayout struct {
	ImportField int
	Enabled     int
	FeedName    int
	TagName     int
	Unit        int
}

// DefaultControlLayout is the positional layout used when the control table
// header does not name its columns.
var DefaultControlLayout = ControlLayout{ImportField: 0, Enabled: 1, FeedName: 2, TagName: 3, Unit: 4}

// LayoutFromHeader refines DefaultControlLayout with any recognised header
// names. Columns that are not named keep their default position.
func LayoutFromHeader(header []string) ControlLayout {
	l := DefaultControlLayout
	for i, h := range header {
		switch strings.ToLower(h) {
		case "import field":
			l.ImportField = i
		case "xml feed", "enabled":
			l.Enabled = i
		case "feed name":
			l.FeedName = i
		case "tag name":
			l.TagName = i
		case "units", "unit":
			l.Unit = i
		}
	}
	return l
}

// IsControlEnabled applies the offer-feed enable rule: the flag must equal
// "true" (any case) or "1". Nothing is trimmed.
func IsControlEnabled(c sheet.Cell) bool {
	s := c.String()
	return strings.EqualFold(s, "true") || s == "1"
}

// BuildControlMap parses the control table. Rows without an import-field
// name are skipped; a repeated import field overwrites the earlier row.
func BuildControlMap(t sheet.Table) ControlMap {
	l := LayoutFromHeader(t.Header())
	m := make(ControlMap)
	for _, row := range t.Data() {
		field := row.At(l.ImportField).Trimmed()
		if field == "" {
			continue
		}
		target := row.At(l.FeedName).Trimmed()
		if target == "" {
			target = field
		}
		m[field] = ControlEntry{
			Enabled:    IsControlEnabled(row.At(l.Enabled)),
			TargetName: target,
			TagName:    row.At(l.TagName).Trimmed(),
			Unit:       row.At(l.Unit).Trimmed(),
			Channel:    Classify(target),
		}
	}
	return m
}

// Stock control column headers.
const (
	ColumnImportField = "Import field"
	ColumnStockFeed   = "Stock feed"
	ColumnFeedName    = "Feed name"
)

var stockDisabled = map[string]bool{"": true, "false": true, "0": true, "no": true, "ni": true, "ні": true}

// IsStockEnabled applies the stock-feed enable rule, which is looser than
// the offer-feed rule: any value other than a known negative token counts.
func IsStockEnabled(c sheet.Cell) bool {
	return !stockDisabled[strings.ToLower(c.Trimmed())]
}

// BuildStockControlMap parses the control table for the stock feed. Columns
// are resolved by header name; when any of them is missing the map is empty.
// Only enabled entries with a feed name are returned.
func BuildStockControlMap(t sheet.Table) ControlMap {
	idx := t.Index()
	fieldCol := idx.Lookup(ColumnImportField)
	flagCol := idx.Lookup(ColumnStockFeed)
	nameCol := idx.Lookup(ColumnFeedName)
	m := make(ControlMap)
	if fieldCol < 0 || flagCol < 0 || nameCol < 0 {
		return m
	}
	for _, row := range t.Data() {
		field := row.At(fieldCol).Trimmed()
		name := row.At(nameCol).Trimmed()
		if field == "" || name == "" || !IsStockEnabled(row.At(flagCol)) {
			continue
		}
		m[field] = ControlEntry{Enabled: true, TargetName: name, Channel: ChannelStock}
	}
	return m
}

// FeedNameIndex maps a feed name to the import field that carries it,
// ignoring enable flags. The last row wins.
type FeedNameIndex map[string]string

// BuildFeedNameIndex reads the "Import field" and "Feed name" columns of the
// control table.
func BuildFeedNameIndex(t sheet.Table) FeedNameIndex {
	idx := t.Index()
	fieldCol := idx.Lookup(ColumnImportField)
	nameCol := idx.Lookup(ColumnFeedName)
	out := make(FeedNameIndex)
	if fieldCol < 0 || nameCol < 0 {
		return out
	}
	for _, row := range t.Data() {
		field := row.At(fieldCol).Trimmed()
		name := row.At(nameCol).Trimmed()
		if field != "" && name != "" {
			out[name] = field
		}
	}
	return out
}
