package mapping

import (
	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/tagset"
)

// Apply projects the decoded tags of one instance onto a fresh copy of the
// base template and returns the resulting fragment.
//
// Apply is a pure function: it never reads the fragments of other
// instances, and calling it twice with the same inputs yields identical
// fragments. A source tag that is absent or fails typed decoding leaves the
// target field at the template default; missing required tags are enforced
// later by the aggregator, not here. Rows are applied in declaration order,
// so of two rows targeting the same path the later one wins.
func (s *Spec) Apply(ts *tagset.TagSet) document.Document {
	fragment := s.template.Clone()

	for _, p := range s.projections {
		value, ok := decodeValue(ts, p)
		if !ok {
			continue
		}
		// Paths were checked against the template at load time.
		_ = fragment.Set(p.Path, value)
	}

	return fragment
}

// decodeValue extracts the projected value in its declared type.
func decodeValue(ts *tagset.TagSet, p Projection) (any, bool) {
	switch p.Type {
	case TypeString:
		s, ok := ts.String(p.Tag)
		if !ok || s == "" {
			return nil, false
		}
		return p.Prefix + s, true

	case TypeInteger:
		n, ok := ts.Int(p.Tag)
		if !ok {
			return nil, false
		}
		return n, true

	case TypeDecimal:
		v, ok := ts.Get(p.Tag)
		if !ok || len(v.Floats) == 0 {
			return nil, false
		}
		return v.Floats[0], true

	case TypeDate:
		d, ok := ts.Date(p.Tag)
		if !ok {
			return nil, false
		}
		return d.Format("2006-01-02"), true

	default:
		return nil, false
	}
}
