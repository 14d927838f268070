package transform

import (
	"context"
	"strings"

	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/tagset"
)

// InstanceCount recounts numberOfSeries, numberOfInstances and the
// per-series instance counts from the series array. Applying it after any
// transform that adds or removes instances keeps the counts consistent.
func InstanceCount() Transform {
	return NewFunc("instance-count", func(_ context.Context, doc document.Document, _ []*tagset.TagSet) (document.Document, error) {
		out := doc.Clone()
		series, ok := seriesList(out)
		if !ok {
			return out, nil
		}

		total := 0
		for _, entry := range series {
			s, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			n := len(instanceList(s))
			s["numberOfInstances"] = n
			total += n
		}
		out["numberOfSeries"] = len(series)
		out["numberOfInstances"] = total
		return out, nil
	})
}

// EndpointRewrite replaces every instance endpoint reference with template,
// substituting the {study}, {series} and {instance} placeholders with the
// matching DICOM UIDs. Instances whose series or SOP UID is absent keep
// their original endpoint.
func EndpointRewrite(template string) Transform {
	return NewFunc("endpoint-rewrite", func(_ context.Context, doc document.Document, sets []*tagset.TagSet) (document.Document, error) {
		if template == "" {
			return doc, nil
		}
		studyUID := ""
		if len(sets) > 0 {
			studyUID = sets[0].StudyInstanceUID()
		}

		out := doc.Clone()
		series, ok := seriesList(out)
		if !ok {
			return out, nil
		}
		for _, entry := range series {
			s, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			seriesUID, _ := s["uid"].(string)
			for _, ie := range instanceList(s) {
				inst, ok := ie.(map[string]any)
				if !ok {
					continue
				}
				instanceUID, _ := inst["uid"].(string)
				if seriesUID == "" || instanceUID == "" {
					continue
				}
				ref := template
				ref = strings.ReplaceAll(ref, "{study}", studyUID)
				ref = strings.ReplaceAll(ref, "{series}", seriesUID)
				ref = strings.ReplaceAll(ref, "{instance}", instanceUID)
				inst["endpoint"] = map[string]any{"reference": ref}
			}
		}
		return out, nil
	})
}

func seriesList(doc document.Document) ([]any, bool) {
	series, ok := doc["series"].([]any)
	return series, ok
}

func instanceList(s map[string]any) []any {
	instances, _ := s["instance"].([]any)
	return instances
}
