package tagset

import (
	"testing"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// newElement builds an element or fails the test.
func newElement(t *testing.T, tg tag.Tag, data any) *dicom.Element {
	t.Helper()
	e, err := dicom.NewElement(tg, data)
	if err != nil {
		t.Fatalf("creating element %v: %v", tg, err)
	}
	return e
}

func sampleSet(t *testing.T) *TagSet {
	t.Helper()
	ds := dicom.Dataset{Elements: []*dicom.Element{
		newElement(t, tag.StudyInstanceUID, []string{"1.2.3"}),
		newElement(t, tag.SeriesInstanceUID, []string{"1.2.3.1"}),
		newElement(t, tag.SOPInstanceUID, []string{"1.2.3.1.9"}),
		newElement(t, tag.PatientID, []string{"PAT-42"}),
		newElement(t, tag.StudyDate, []string{"20240115"}),
		newElement(t, tag.InstanceNumber, []string{"7"}),
		newElement(t, tag.Modality, []string{"CT"}),
	}}
	return FromDataset(ds)
}

func TestTagSet_Identity(t *testing.T) {
	ts := sampleSet(t)

	if got := ts.StudyInstanceUID(); got != "1.2.3" {
		t.Errorf("StudyInstanceUID() = %q; want 1.2.3", got)
	}
	if got := ts.SeriesInstanceUID(); got != "1.2.3.1" {
		t.Errorf("SeriesInstanceUID() = %q; want 1.2.3.1", got)
	}
	if got := ts.SOPInstanceUID(); got != "1.2.3.1.9" {
		t.Errorf("SOPInstanceUID() = %q; want 1.2.3.1.9", got)
	}
	if !ts.HasIdentity() {
		t.Error("HasIdentity() = false; want true")
	}
}

func TestTagSet_TypedGetters(t *testing.T) {
	ts := sampleSet(t)

	if n, ok := ts.Int(tag.InstanceNumber); !ok || n != 7 {
		t.Errorf("Int(InstanceNumber) = %d, %v; want 7, true", n, ok)
	}

	d, ok := ts.Date(tag.StudyDate)
	if !ok {
		t.Fatal("Date(StudyDate) not found")
	}
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("Date(StudyDate) = %v; want %v", d, want)
	}

	if s, ok := ts.String(tag.Modality); !ok || s != "CT" {
		t.Errorf("String(Modality) = %q, %v; want CT, true", s, ok)
	}
}

func TestTagSet_MissingTag(t *testing.T) {
	ts := sampleSet(t)

	if _, ok := ts.String(tag.BodyPartExamined); ok {
		t.Error("String(BodyPartExamined) found; want missing")
	}
	if _, ok := ts.Int(tag.SeriesNumber); ok {
		t.Error("Int(SeriesNumber) found; want missing")
	}
	if _, ok := ts.Date(tag.Modality); ok {
		t.Error("Date(Modality) decoded a non-date value")
	}
}

func TestTagSet_PrivateTagRetained(t *testing.T) {
	private := tag.Tag{Group: 0x0009, Element: 0x0010}
	val, err := dicom.NewValue([]string{"vendor-data"})
	if err != nil {
		t.Fatalf("NewValue error: %v", err)
	}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		{
			Tag:                    private,
			RawValueRepresentation: "LO",
			Value:                  val,
		},
	}}
	ts := FromDataset(ds)

	if !ts.Has(private) {
		t.Fatal("private element not retained")
	}
	if s, _ := ts.String(private); s != "vendor-data" {
		t.Errorf("private value = %q; want vendor-data", s)
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		in      string
		want    tag.Tag
		wantErr bool
	}{
		{"(0020,000D)", tag.Tag{Group: 0x0020, Element: 0x000D}, false},
		{"0008,0018", tag.Tag{Group: 0x0008, Element: 0x0018}, false},
		{" (0010,0020) ", tag.Tag{Group: 0x0010, Element: 0x0020}, false},
		{"0020000D", tag.Tag{}, true},
		{"(zzzz,000D)", tag.Tag{}, true},
		{"", tag.Tag{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTag(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTag(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTag(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatTag(t *testing.T) {
	if got := FormatTag(tag.Tag{Group: 0x0020, Element: 0x000D}); got != "(0020,000D)" {
		t.Errorf("FormatTag = %q; want (0020,000D)", got)
	}
}
