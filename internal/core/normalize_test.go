package core

import (
	"encoding/xml"
	"reflect"
	"testing"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

func TestIsBooleanLike(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{" TRUE ", true},
		{"0", true},
		{"Yes", true},
		{"так", true},
		{"Ні", true},
		{"да", true},
		{"нет", true},
		{"", false},
		{"maybe", false},
		{"2", false},
		{"y", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsBooleanLike(tt.in); got != tt.want {
				t.Errorf("IsBooleanLike(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBooleanToLocalized(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"true", "Так"},
		{"1", "Так"},
		{"ТАК", "Так"},
		{"no", "Ні"},
		{"нет", "Ні"},
		{"green", "green"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := BooleanToLocalized(tt.in); got != tt.want {
				t.Errorf("BooleanToLocalized(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertLength(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		unit   string
		want   float64
		wantOK bool
	}{
		{"mm cyrillic", "150", "мм", 15, true},
		{"mm latin", "155", "mm", 15.5, true},
		{"metres", "2", "м", 200, true},
		{"decimal comma metres", "1,25", "m", 125, true},
		{"centimetres rounded", "12.346", "см", 12.35, true},
		{"unknown unit", "10", "in", 0, false},
		{"empty unit", "10", "", 0, false},
		{"not a number", "abc", "мм", 0, false},
		{"leading number", "15 approx", "cm", 15, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConvertLength(tt.value, tt.unit)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ConvertLength(%q, %q) = (%v, %v), want (%v, %v)", tt.value, tt.unit, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestConvertWeight(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		unit   string
		want   float64
		wantOK bool
	}{
		{"grams", "1500", "г", 1.5, true},
		{"grams latin", "250", "g", 0.25, true},
		{"kilograms unchanged", "2,5", "кг", 2.5, true},
		{"rounding", "1234", "g", 1.23, true},
		{"unknown unit", "3", "lb", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConvertWeight(tt.value, tt.unit)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ConvertWeight(%q, %q) = (%v, %v), want (%v, %v)", tt.value, tt.unit, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1 234,50 ₴", 1234.50},
		{"", 0},
		{"abc", 0},
		{"  ", 0},
		{"499", 499},
		{"1 299.99 грн", 1299.99},
		{"$12.5", 12.5},
		{"1.2.3", 1.2},
		{".", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanPrice(tt.in); got != tt.want {
				t.Errorf("CleanPrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanPrice_Idempotent(t *testing.T) {
	inputs := []string{"1 234,50 ₴", "", "abc", "0,99", "12", "1e3", "7.000", "-5"}
	for _, in := range inputs {
		first := CleanPrice(in)
		if again := CleanPrice(FormatNumber(first)); again != first {
			t.Errorf("CleanPrice not idempotent for %q: %v then %v", in, first, again)
		}
	}
}

func TestEscapeMarkup(t *testing.T) {
	in := `Tom & Jerry <"best"> 'ever'`
	want := "Tom &amp; Jerry &lt;&quot;best&quot;&gt; &apos;ever&apos;"
	if got := EscapeMarkup(in); got != want {
		t.Errorf("EscapeMarkup() = %q, want %q", got, want)
	}
	if got := EscapeMarkup("&amp;"); got != "&amp;amp;" {
		t.Errorf("EscapeMarkup(&amp;) = %q, want each ampersand escaped once", got)
	}
	if got := EscapeMarkup(""); got != "" {
		t.Errorf("EscapeMarkup(\"\") = %q, want empty", got)
	}
}

func TestEscapeMarkup_DropsNonXMLCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"vertical tab", "Lamp\vPro", "LampPro"},
		{"nul and form feed", "a\x00b\fc", "abc"},
		{"noncharacters", "x\uFFFEy\uFFFFz", "xyz"},
		{"allowed whitespace kept", "a\tb\nc\rd", "a\tb\nc\rd"},
		{"invalid utf8 replaced", "ok\xffok", "ok\uFFFDok"},
		{"escaping still applies", "a\x01&b", "a&amp;b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeMarkup(tt.in); got != tt.want {
				t.Errorf("EscapeMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeMarkup_RoundTrip(t *testing.T) {
	originals := []string{
		`& < > " '`,
		`a&b<c>d"e'f`,
		`&amp; already escaped`,
		`plain text`,
	}
	for _, orig := range originals {
		doc := "<v>" + EscapeMarkup(orig) + "</v>"
		var got string
		if err := xml.Unmarshal([]byte(doc), &got); err != nil {
			t.Fatalf("unmarshal %q: %v", doc, err)
		}
		if got != orig {
			t.Errorf("round trip = %q, want %q", got, orig)
		}
	}
}

func TestProcessTagValue(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value sheet.Cell
		unit  string
		want  []string
	}{
		{"empty cell", "Колір", sheet.Cell{}, "", nil},
		{"whitespace only", "Колір", sheet.Text("   "), "", nil},
		{"placeholder", "Фото", sheet.Text("CellImage"), "", nil},
		{"boolean localized", "Гарантія", sheet.Text("yes"), "", []string{"Так"}},
		{"boolean cell", "Гарантія", sheet.Bool(false), "", []string{"Ні"}},
		{"plain trimmed", "Колір", sheet.Text("  червоний "), "", []string{"червоний"}},
		{"unit appended", "Потужність", sheet.Text("1,5"), "кВт", []string{"1.5 кВт"}},
		{"number with unit", "Вага", sheet.Number(12), "кг", []string{"12 кг"}},
		{"features split", FeaturesParam, sheet.Text("Wi-Fi, , USB-C ,NFC"), "", []string{"Wi-Fi", "USB-C", "NFC"}},
		{"features single", FeaturesParam, sheet.Text("Водонепроникний"), "", []string{"Водонепроникний"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProcessTagValue(tt.param, tt.value, tt.unit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ProcessTagValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
