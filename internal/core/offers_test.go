package core

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

func offerControls() ControlMap {
	return BuildControlMap(sheet.NewTable(
		[]string{"Import field", "XML feed", "Feed name", "Tag name", "Units"},
		[]string{"Артикул", "TRUE", "vendor_code"},
		[]string{"Назва", "TRUE", "title"},
		[]string{"Код", "TRUE", "code"},
		[]string{"Опис", "TRUE", "description"},
		[]string{"Бренд", "TRUE", "brand"},
		[]string{"Висота", "TRUE", "height", "", "мм"},
		[]string{"Вага", "TRUE", "weight", "", "г"},
		[]string{"Фото", "TRUE", "image_1"},
		[]string{"Колір", "TRUE", "tags", "Колір"},
		[]string{"Матеріал", "TRUE", "material"},
		[]string{"Прихована", "FALSE", "hidden"},
	))
}

var offerHeader = []string{"Назва", "Артикул", "Опис", "Код", "Бренд", "Висота", "Вага", "Фото", "Колір", "Матеріал", "Прихована"}

func TestRenderOffersXML_Empty(t *testing.T) {
	want := "<?xml version='1.0' encoding='UTF-8'?>\n<Market>\n  <offers/>\n</Market>"
	if got := string(RenderOffersXML(nil)); got != want {
		t.Errorf("RenderOffersXML(nil) =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildOffersXML(t *testing.T) {
	importTable := sheet.NewTable(
		offerHeader,
		[]string{"Lamp & Co", "A-1", "<b>Bright</b> ]]> end", "100", "Acme", "150", "1500", "http://x/1.jpg?a=1&b=2", "так", "Steel", "secret"},
		[]string{},
		[]string{"", "", "", "", "", "", "", "", "", "", "only hidden"},
	)

	doc, n := BuildOffersXML(importTable, offerControls())
	if n != 1 {
		t.Errorf("offers = %d, want 1", n)
	}

	want := `<?xml version='1.0' encoding='UTF-8'?>
<Market>
  <offers>
    <offer>
      <code>100</code>
      <title>Lamp &amp; Co</title>
      <vendor_code>A-1</vendor_code>
      <description><![CDATA[<b>Bright</b> ]]]]><![CDATA[> end]]></description>
      <brand>Acme</brand>
      <height>15</height>
      <weight>1.5</weight>
      <image_link>
        <picture>http://x/1.jpg?a=1&amp;b=2</picture>
      </image_link>
      <tags>
        <param name="Колір">Так</param>
        <param name="material">Steel</param>
      </tags>
    </offer>
  </offers>
</Market>`
	if got := string(doc); got != want {
		t.Errorf("document mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}

	assertWellFormed(t, doc)
}

func TestBuildOffersXML_Deterministic(t *testing.T) {
	importTable := sheet.NewTable(
		offerHeader,
		[]string{"A", "1", "d", "c1", "b", "10", "10", "p", "так", "m", ""},
		[]string{"B", "2", "", "c2", "", "", "", "", "", "", ""},
	)
	first, _ := BuildOffersXML(importTable, offerControls())
	second, _ := BuildOffersXML(importTable, offerControls())
	if !bytes.Equal(first, second) {
		t.Error("same input produced different documents")
	}
}

func TestBuildOffers_Routing(t *testing.T) {
	controls := BuildControlMap(sheet.NewTable(
		[]string{"Import field", "XML feed", "Feed name", "Tag name", "Units"},
		[]string{"Ід", "TRUE", "id"},
		[]string{"Висота", "TRUE", "height", "", "мм"},
		[]string{"Ширина", "TRUE", "width", "", "inch"},
		[]string{"Особливості", "TRUE", "tags", FeaturesParam},
		[]string{"Фото", "TRUE", "tags"},
		[]string{"Потужність", "TRUE", "power", "", "кВт"},
		[]string{"Галерея", "1", "image_2"},
	))
	importTable := sheet.NewTable(
		[]string{"Ід", "Висота", "Ширина", "Особливості", "Фото", "Потужність", "Галерея"},
		[]string{"42", "n/a", "3", "Wi-Fi, USB-C", "cellimage", "1,5", "a.jpg"},
	)

	offers := BuildOffers(importTable, controls)
	if len(offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(offers))
	}
	o := offers[0]

	if want := []Element{{Name: "id", Value: "42"}}; !reflect.DeepEqual(o.Lead, want) {
		t.Errorf("Lead = %+v, want %+v", o.Lead, want)
	}
	wantCore := []Element{
		{Name: "height", Value: "n/a"},
		{Name: "width", Value: "3"},
	}
	if !reflect.DeepEqual(o.Core, wantCore) {
		t.Errorf("Core = %+v, want %+v", o.Core, wantCore)
	}
	wantParams := []Param{
		{Name: FeaturesParam, Value: "Wi-Fi"},
		{Name: FeaturesParam, Value: "USB-C"},
		{Name: "power", Value: "1.5 кВт"},
	}
	if !reflect.DeepEqual(o.Params, wantParams) {
		t.Errorf("Params = %+v, want %+v", o.Params, wantParams)
	}
	if want := []string{"a.jpg"}; !reflect.DeepEqual(o.Pictures, want) {
		t.Errorf("Pictures = %v, want %v", o.Pictures, want)
	}
}

func TestBuildOffers_UnmappedColumnsIgnored(t *testing.T) {
	importTable := sheet.NewTable(
		[]string{"Unknown", ""},
		[]string{"value", "orphan"},
	)
	if offers := BuildOffers(importTable, offerControls()); len(offers) != 0 {
		t.Errorf("offers = %+v, want none", offers)
	}
}

func TestBuildOffersXML_HeaderOnlyImport(t *testing.T) {
	doc, n := BuildOffersXML(sheet.NewTable(offerHeader), offerControls())
	if n != 0 {
		t.Errorf("offers = %d, want 0", n)
	}
	want := "<?xml version='1.0' encoding='UTF-8'?>\n<Market>\n  <offers/>\n</Market>"
	if got := string(doc); got != want {
		t.Errorf("BuildOffersXML(header only) =\n%s\nwant\n%s", got, want)
	}
	assertWellFormed(t, doc)
}

func TestBuildOffersXML_ControlCharactersDropped(t *testing.T) {
	importTable := sheet.NewTable(
		offerHeader,
		[]string{"Lamp\vPro", "A-\x002", "Warm\x01 ]]> light", "100", "Ac\uFFFEme", "", "", "", "", "St\x1feel", ""},
	)

	doc, n := BuildOffersXML(importTable, offerControls())
	if n != 1 {
		t.Fatalf("offers = %d, want 1", n)
	}
	assertWellFormed(t, doc)

	for _, want := range []string{
		"<title>LampPro</title>",
		"<vendor_code>A-2</vendor_code>",
		"<description><![CDATA[Warm ]]]]><![CDATA[> light]]></description>",
		"<brand>Acme</brand>",
		`<param name="material">Steel</param>`,
	} {
		if !bytes.Contains(doc, []byte(want)) {
			t.Errorf("document missing %s\n%s", want, doc)
		}
	}
}

func TestCdataSafe(t *testing.T) {
	doc := []byte("<d>" + element(Element{Name: "x", Value: "a]]>b]]>c", CDATA: true}) + "</d>")
	var got struct {
		X string `xml:"x"`
	}
	if err := xml.Unmarshal(doc, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", doc, err)
	}
	if got.X != "a]]>b]]>c" {
		t.Errorf("CDATA round trip = %q", got.X)
	}
}

func assertWellFormed(t *testing.T, doc []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("document is not well-formed: %v", err)
		}
	}
}
