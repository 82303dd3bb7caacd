package core

import (
	"strings"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

// Element is a named text element of an offer.
type Element struct {
	Name  string
	Value string
	CDATA bool
}

// Param is one <param name="..."> entry.
type Param struct {
	Name  string
	Value string
}

// Offer is one product record of the XML feed. Lead holds the code, title,
// id and vendor_code elements in that order, each at most once.
type Offer struct {
	Lead     []Element
	Core     []Element
	Pictures []string
	Params   []Param
}

// IsEmpty reports whether the offer collected nothing and must be omitted.
func (o Offer) IsEmpty() bool {
	return len(o.Lead) == 0 && len(o.Core) == 0 && len(o.Pictures) == 0 && len(o.Params) == 0
}

// leadOrder fixes the render order of the held slots.
var leadOrder = []string{"code", "title", "id", "vendor_code"}

// BuildOffers builds one offer per non-empty Import row. Blank rows and rows
// without any enabled, non-empty column are skipped.
func BuildOffers(t sheet.Table, controls ControlMap) []Offer {
	header := t.Header()
	var offers []Offer
	for _, row := range t.Data() {
		if row.IsBlank() {
			continue
		}
		if o := buildOffer(header, row, controls); !o.IsEmpty() {
			offers = append(offers, o)
		}
	}
	return offers
}

func buildOffer(header []string, row sheet.Row, controls ControlMap) Offer {
	var (
		o    Offer
		held = make(map[string]string, len(leadOrder))
	)

	for i, h := range header {
		if h == "" {
			continue
		}
		cell := row.At(i)
		if cell.IsEmpty() {
			continue
		}
		ctl, ok := controls.Lookup(h)
		if !ok {
			continue
		}
		target := ctl.TargetName

		switch ctl.Channel {
		case ChannelCore:
			if target == "description" {
				o.Core = append(o.Core, Element{Name: target, Value: cell.String(), CDATA: true})
				continue
			}
			v := coreValue(target, cell.String(), ctl.Unit)
			if isLead(target) {
				held[target] = v
				continue
			}
			o.Core = append(o.Core, Element{Name: target, Value: v})

		case ChannelImage:
			o.Pictures = append(o.Pictures, cell.String())

		case ChannelTag:
			name := ctl.TagName
			if name == "" {
				name = h
			}
			for _, v := range ProcessTagValue(name, cell, ctl.Unit) {
				o.Params = append(o.Params, Param{Name: name, Value: v})
			}

		default:
			v := withUnit(cell.String(), ctl.Unit)
			if v == "" {
				continue
			}
			o.Params = append(o.Params, Param{Name: target, Value: v})
		}
	}

	for _, name := range leadOrder {
		if v, ok := held[name]; ok {
			o.Lead = append(o.Lead, Element{Name: name, Value: v})
		}
	}
	return o
}

func isLead(name string) bool {
	for _, n := range leadOrder {
		if n == name {
			return true
		}
	}
	return false
}

// coreValue converts dimension and weight fields to centimetres and
// kilograms. Values that cannot be converted are emitted as they are.
func coreValue(target, raw, unit string) string {
	switch target {
	case "height", "width", "length":
		if f, ok := ConvertLength(raw, unit); ok {
			return FormatNumber(f)
		}
	case "weight":
		if f, ok := ConvertWeight(raw, unit); ok {
			return FormatNumber(f)
		}
	}
	return raw
}

const xmlDeclaration = "<?xml version='1.0' encoding='UTF-8'?>"

// RenderOffersXML writes the feed document. Output uses two-space
// indentation and is byte-for-byte deterministic for the same offers.
func RenderOffersXML(offers []Offer) []byte {
	var b strings.Builder
	line := func(depth int, s string) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(0, xmlDeclaration)
	line(0, "<Market>")
	if len(offers) == 0 {
		line(1, "<offers/>")
	} else {
		line(1, "<offers>")
		for _, o := range offers {
			writeOffer(line, o)
		}
		line(1, "</offers>")
	}
	b.WriteString("</Market>")
	return []byte(b.String())
}

func writeOffer(line func(int, string), o Offer) {
	line(2, "<offer>")
	for _, e := range o.Lead {
		line(3, element(e))
	}
	for _, e := range o.Core {
		line(3, element(e))
	}
	if len(o.Pictures) > 0 {
		line(3, "<image_link>")
		for _, p := range o.Pictures {
			line(4, "<picture>"+EscapeMarkup(p)+"</picture>")
		}
		line(3, "</image_link>")
	}
	if len(o.Params) > 0 {
		line(3, "<tags>")
		for _, p := range o.Params {
			line(4, `<param name="`+EscapeMarkup(p.Name)+`">`+EscapeMarkup(p.Value)+"</param>")
		}
		line(3, "</tags>")
	}
	line(2, "</offer>")
}

func element(e Element) string {
	if e.CDATA {
		return "<" + e.Name + "><![CDATA[" + cdataSafe(e.Value) + "]]></" + e.Name + ">"
	}
	return "<" + e.Name + ">" + EscapeMarkup(e.Value) + "</" + e.Name + ">"
}

// cdataSafe splits any "]]>" so the section cannot be closed early and
// drops characters XML cannot carry.
func cdataSafe(s string) string {
	return strings.ReplaceAll(xmlSafe(s), "]]>", "]]]]><![CDATA[>")
}

// BuildOffersXML is BuildOffers followed by RenderOffersXML.
func BuildOffersXML(t sheet.Table, controls ControlMap) ([]byte, int) {
	offers := BuildOffers(t, controls)
	return RenderOffersXML(offers), len(offers)
}
