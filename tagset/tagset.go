// Package tagset provides an immutable, typed view over the metadata
// elements decoded from one DICOM SOP Instance.
package tagset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Value is one decoded element value. Exactly one of the value slices is
// populated, according to the element's value representation.
type Value struct {
	// VR is the raw value representation of the element (e.g. "UI", "IS").
	VR string

	// Strings holds string-typed values (UI, LO, CS, DA, ...).
	Strings []string

	// Ints holds integer-typed values (US, SL, and decoded IS).
	Ints []int

	// Floats holds floating-point values (FL, FD, and decoded DS).
	Floats []float64

	// Items holds the nested tag sets of a sequence (SQ) element.
	Items []*TagSet
}

// First returns the first string value, or "" when the element holds no
// string values.
func (v Value) First() string {
	if len(v.Strings) == 0 {
		return ""
	}
	return v.Strings[0]
}

// TagSet is the decoded metadata of one SOP Instance: a mapping from
// element tag to typed value. It is immutable once built; lookups are safe
// for concurrent use.
type TagSet struct {
	elements map[tag.Tag]Value
	order    []tag.Tag
}

// FromDataset converts a parsed dataset into a TagSet. Unknown and
// private elements are retained; pixel data is skipped.
func FromDataset(ds dicom.Dataset) *TagSet {
	ts := &TagSet{elements: make(map[tag.Tag]Value, len(ds.Elements))}
	for _, e := range ds.Elements {
		ts.add(e)
	}
	return ts
}

// FromElements converts individually decoded elements into a TagSet.
func FromElements(elems []*dicom.Element) *TagSet {
	ts := &TagSet{elements: make(map[tag.Tag]Value, len(elems))}
	for _, e := range elems {
		ts.add(e)
	}
	return ts
}

func (ts *TagSet) add(e *dicom.Element) {
	if e == nil || e.Value == nil {
		return
	}
	if e.Tag == tag.PixelData {
		return
	}

	v := Value{VR: e.RawValueRepresentation}
	switch raw := e.Value.GetValue().(type) {
	case []string:
		v.Strings = raw
		// IS and DS are encoded as strings but carry declared numeric
		// representations; decode them so consumers get typed values.
		switch e.RawValueRepresentation {
		case "IS":
			for _, s := range raw {
				if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
					v.Ints = append(v.Ints, n)
				}
			}
		case "DS":
			for _, s := range raw {
				if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					v.Floats = append(v.Floats, f)
				}
			}
		}
	case []int:
		v.Ints = raw
	case []float64:
		v.Floats = raw
	case []*dicom.SequenceItemValue:
		for _, item := range raw {
			if elems, ok := item.GetValue().([]*dicom.Element); ok {
				v.Items = append(v.Items, FromElements(elems))
			}
		}
	default:
		// Bulk data and unrecognized shapes are kept as an empty typed
		// value so the tag remains visible to multi-value lookups.
	}

	if _, exists := ts.elements[e.Tag]; !exists {
		ts.order = append(ts.order, e.Tag)
	}
	ts.elements[e.Tag] = v
}

// Len returns the number of elements.
func (ts *TagSet) Len() int {
	return len(ts.elements)
}

// Has reports whether the tag is present.
func (ts *TagSet) Has(t tag.Tag) bool {
	_, ok := ts.elements[t]
	return ok
}

// Get returns the value for a tag.
func (ts *TagSet) Get(t tag.Tag) (Value, bool) {
	v, ok := ts.elements[t]
	return v, ok
}

// String returns the first string value for a tag.
func (ts *TagSet) String(t tag.Tag) (string, bool) {
	v, ok := ts.elements[t]
	if !ok || len(v.Strings) == 0 {
		return "", false
	}
	return strings.TrimSpace(v.Strings[0]), true
}

// Int returns the first integer value for a tag, decoding IS elements from
// their string form.
func (ts *TagSet) Int(t tag.Tag) (int, bool) {
	v, ok := ts.elements[t]
	if !ok {
		return 0, false
	}
	if len(v.Ints) > 0 {
		return v.Ints[0], true
	}
	if len(v.Strings) > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(v.Strings[0])); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Date returns the first DA value for a tag, decoded from DICOM YYYYMMDD
// form.
func (ts *TagSet) Date(t tag.Tag) (time.Time, bool) {
	s, ok := ts.String(t)
	if !ok {
		return time.Time{}, false
	}
	d, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Tags returns all tags in decode order.
func (ts *TagSet) Tags() []tag.Tag {
	out := make([]tag.Tag, len(ts.order))
	copy(out, ts.order)
	return out
}

// StudyInstanceUID returns the Study Instance UID (0020,000D).
func (ts *TagSet) StudyInstanceUID() string {
	s, _ := ts.String(tag.StudyInstanceUID)
	return s
}

// SeriesInstanceUID returns the Series Instance UID (0020,000E).
func (ts *TagSet) SeriesInstanceUID() string {
	s, _ := ts.String(tag.SeriesInstanceUID)
	return s
}

// SOPInstanceUID returns the SOP Instance UID (0008,0018).
func (ts *TagSet) SOPInstanceUID() string {
	s, _ := ts.String(tag.SOPInstanceUID)
	return s
}

// HasIdentity reports whether the essential identifying tags were decoded.
func (ts *TagSet) HasIdentity() bool {
	return ts.StudyInstanceUID() != "" &&
		ts.SeriesInstanceUID() != "" &&
		ts.SOPInstanceUID() != ""
}

// ParseTag parses a tag written as "(0020,000D)" or "0020,000D".
func ParseTag(s string) (tag.Tag, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "("), ")")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return tag.Tag{}, fmt.Errorf("invalid tag %q", s)
	}
	group, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("invalid tag group %q: %w", s, err)
	}
	elem, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("invalid tag element %q: %w", s, err)
	}
	return tag.Tag{Group: uint16(group), Element: uint16(elem)}, nil
}

// FormatTag renders a tag in the conventional "(gggg,eeee)" form.
func FormatTag(t tag.Tag) string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}
