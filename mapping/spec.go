// Package mapping loads and applies the configurable projection from DICOM
// tags onto a FHIR document template.
package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/suyashkumar/dicom/pkg/tag"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/tagset"
)

// ValueType declares how a projected tag value is decoded and formatted.
type ValueType string

// Supported projection value types.
const (
	// TypeString copies the first string value of the element.
	TypeString ValueType = "string"
	// TypeInteger decodes the element as an integer (IS, US, SL).
	TypeInteger ValueType = "integer"
	// TypeDecimal decodes the element as a floating-point number (DS, FL, FD).
	TypeDecimal ValueType = "decimal"
	// TypeDate decodes a DA element and renders it as a FHIR date
	// (YYYY-MM-DD).
	TypeDate ValueType = "date"
)

// IsValid reports whether this is a supported value type.
func (t ValueType) IsValid() bool {
	switch t {
	case TypeString, TypeInteger, TypeDecimal, TypeDate:
		return true
	default:
		return false
	}
}

// Projection is one validated row of the tag table: copy the source tag's
// value to the target path when present and well-typed.
type Projection struct {
	// Tag is the source DICOM element.
	Tag tag.Tag

	// Path is the dotted target path inside the template.
	Path string

	// Type declares the expected value representation.
	Type ValueType

	// Prefix is prepended to string values (e.g. "Patient/" before a
	// patient ID to form a FHIR reference).
	Prefix string
}

// Spec is the immutable mapping configuration for a run: the base template
// (field skeleton with default values) and the ordered projection table.
// When two rows target the same path, the row declared later wins.
type Spec struct {
	template    document.Document
	projections []Projection
}

// Template returns a deep copy of the base template.
func (s *Spec) Template() document.Document {
	return s.template.Clone()
}

// Projections returns the projection table in declaration order.
func (s *Spec) Projections() []Projection {
	return s.projections
}

// projectionRow is the wire form of one tag-table row.
type projectionRow struct {
	Tag    string `json:"tag"`
	Path   string `json:"path"`
	Type   string `json:"type"`
	Prefix string `json:"prefix,omitempty"`
}

// tagTable is the wire form of the tag-table document.
type tagTable struct {
	Projections []projectionRow `json:"projections"`
}

// ParseSpec validates the two configuration documents and builds a Spec.
// Any structural problem fails with ErrConfigUnavailable: a malformed table
// must stop the batch before it produces silently wrong documents.
func ParseSpec(templateJSON, tableJSON []byte) (*Spec, error) {
	var template document.Document
	if err := json.Unmarshal(templateJSON, &template); err != nil {
		return nil, fmt.Errorf("%w: template: %v", dicomext.ErrConfigUnavailable, err)
	}
	if len(template) == 0 {
		return nil, fmt.Errorf("%w: template is empty", dicomext.ErrConfigUnavailable)
	}

	var table tagTable
	if err := json.Unmarshal(tableJSON, &table); err != nil {
		return nil, fmt.Errorf("%w: tag table: %v", dicomext.ErrConfigUnavailable, err)
	}
	if len(table.Projections) == 0 {
		return nil, fmt.Errorf("%w: tag table has no projections", dicomext.ErrConfigUnavailable)
	}

	projections := make([]Projection, 0, len(table.Projections))
	for i, row := range table.Projections {
		t, err := tagset.ParseTag(row.Tag)
		if err != nil {
			return nil, fmt.Errorf("%w: projection %d: %v", dicomext.ErrConfigUnavailable, i, err)
		}

		vt := ValueType(row.Type)
		if !vt.IsValid() {
			return nil, fmt.Errorf("%w: projection %d: unknown type %q", dicomext.ErrConfigUnavailable, i, row.Type)
		}

		if row.Path == "" {
			return nil, fmt.Errorf("%w: projection %d: empty path", dicomext.ErrConfigUnavailable, i)
		}
		if _, ok := template.Get(row.Path); !ok {
			return nil, fmt.Errorf("%w: projection %d: path %q not in template", dicomext.ErrConfigUnavailable, i, row.Path)
		}

		projections = append(projections, Projection{
			Tag:    t,
			Path:   row.Path,
			Type:   vt,
			Prefix: row.Prefix,
		})
	}

	return &Spec{template: template, projections: projections}, nil
}
