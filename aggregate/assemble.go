package aggregate

import (
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
)

// modalityCodingSystem is the coding system for DICOM modality codes.
const modalityCodingSystem = "http://dicom.nema.org/resources/ontology/DCM"

// sopClassCodingSystem is the coding system for SOP Class UID URNs.
const sopClassCodingSystem = "urn:ietf:rfc:3986"

// seriesGroup holds the accepted candidates of one series, in processing
// order.
type seriesGroup struct {
	uid        string
	number     int
	hasNumber  bool
	candidates []*candidate
}

// groupBySeries partitions candidates by Series Instance UID. Series are
// ordered by the series-number element when every series carries one;
// otherwise processing order is kept so output stays deterministic for a
// given input order.
func groupBySeries(accepted []*candidate) []*seriesGroup {
	byUID := make(map[string]*seriesGroup)
	var groups []*seriesGroup

	for _, c := range accepted {
		uid := c.tags.SeriesInstanceUID()
		g, ok := byUID[uid]
		if !ok {
			g = &seriesGroup{uid: uid}
			if n, has := c.tags.Int(tag.SeriesNumber); has {
				g.number = n
				g.hasNumber = true
			}
			byUID[uid] = g
			groups = append(groups, g)
		}
		g.candidates = append(g.candidates, c)
	}

	ordered := true
	for _, g := range groups {
		if !g.hasNumber {
			ordered = false
			break
		}
	}
	if ordered {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].number < groups[j].number
		})
	}
	return groups
}

// assemble builds the output document: study-level fields come from the
// reference candidate's fragment, one series entry per group, one instance
// entry per accepted candidate.
func (a *Aggregator) assemble(bucket string, reference *candidate, studyUID string, groups []*seriesGroup) document.Document {
	doc := reference.fragment.Clone()

	total := 0
	series := make([]any, 0, len(groups))
	for _, g := range groups {
		entry := map[string]any{
			"uid":               g.uid,
			"numberOfInstances": len(g.candidates),
		}
		if g.hasNumber {
			entry["number"] = g.number
		}
		first := g.candidates[0].tags
		if modality, ok := first.String(tag.Modality); ok && modality != "" {
			entry["modality"] = map[string]any{
				"system": modalityCodingSystem,
				"code":   modality,
			}
		}
		if part, ok := first.String(tag.BodyPartExamined); ok && part != "" {
			entry["bodySite"] = map[string]any{"display": part}
		}

		instances := make([]any, 0, len(g.candidates))
		for _, c := range g.candidates {
			instances = append(instances, a.instanceEntry(bucket, studyUID, g.uid, c))
		}
		entry["instance"] = instances
		series = append(series, entry)
		total += len(g.candidates)
	}

	doc["series"] = series
	doc["numberOfSeries"] = len(groups)
	doc["numberOfInstances"] = total
	return doc
}

func (a *Aggregator) instanceEntry(bucket, studyUID, seriesUID string, c *candidate) map[string]any {
	entry := map[string]any{
		"uid": c.tags.SOPInstanceUID(),
		"endpoint": map[string]any{
			"reference": a.endpointRef(bucket, studyUID, seriesUID, c),
		},
	}
	if sopClass, ok := c.tags.String(tag.SOPClassUID); ok && sopClass != "" {
		entry["sopClass"] = map[string]any{
			"system": sopClassCodingSystem,
			"code":   "urn:oid:" + sopClass,
		}
	}
	if n, ok := c.tags.Int(tag.InstanceNumber); ok {
		entry["number"] = n
	}
	return entry
}

// endpointRef derives the retrieval location for one instance: either the
// configured URL template with its UID placeholders substituted, or the
// object-store location.
func (a *Aggregator) endpointRef(bucket, studyUID, seriesUID string, c *candidate) string {
	if tpl := a.opts.EndpointTemplate; tpl != "" {
		ref := strings.ReplaceAll(tpl, "{study}", studyUID)
		ref = strings.ReplaceAll(ref, "{series}", seriesUID)
		return strings.ReplaceAll(ref, "{instance}", c.tags.SOPInstanceUID())
	}
	return "s3://" + bucket + "/" + c.key
}
