package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/mapping"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/reader"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/store"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/tagset"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/transform"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/worker"
)

// Aggregator processes batches of SOP Instances into study documents. One
// Aggregator may process many batches; concurrent batches share only the
// immutable mapping spec and the stateless reader.
type Aggregator struct {
	reader  *reader.Reader
	spec    *mapping.Spec
	chain   *transform.Chain
	opts    *dicomext.Options
	metrics *dicomext.Metrics
	log     zerolog.Logger
}

// New creates an Aggregator reading instances from objects and projecting
// them through spec.
func New(objects store.ObjectStore, spec *mapping.Spec, opts ...dicomext.Option) *Aggregator {
	o := dicomext.DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Aggregator{
		reader: reader.New(objects, o.ByteLimit),
		spec:   spec,
		chain:  transform.NewChain(),
		opts:   o,
		log:    zerolog.Nop(),
	}
}

// WithTransform sets the post-assembly transform chain.
func (a *Aggregator) WithTransform(chain *transform.Chain) *Aggregator {
	if chain != nil {
		a.chain = chain
	}
	return a
}

// WithMetrics attaches Prometheus collectors.
func (a *Aggregator) WithMetrics(m *dicomext.Metrics) *Aggregator {
	a.metrics = m
	return a
}

// WithLogger sets the logger. The default discards all output.
func (a *Aggregator) WithLogger(log zerolog.Logger) *Aggregator {
	a.log = log
	return a
}

// candidate is one successfully decoded and projected instance, pending the
// identity check.
type candidate struct {
	key      string
	tags     *tagset.TagSet
	fragment document.Document
}

// Process runs the full state machine for one batch. The returned result
// carries one routing decision per input instance even when the batch fails
// with ErrEmptyBatch, so rejections can still be dispatched. Cancellation
// discards all partial state and returns the context error with no result.
func (a *Aggregator) Process(ctx context.Context, batch dicomext.Batch) (*dicomext.BatchResult, error) {
	start := time.Now()
	log := a.log.With().Str("bucket", batch.Bucket).Int("instances", len(batch.Instances)).Logger()

	if len(batch.Instances) == 0 {
		a.metrics.RecordBatch("empty", time.Since(start))
		return nil, fmt.Errorf("batch %s: %w", batch.Bucket, dicomext.ErrEmptyBatch)
	}

	// Collecting: decode and project every instance, in parallel. Each
	// instance touches only its own tag set and fragment until the barrier.
	results := worker.Run(ctx, batch.Instances, a.opts.WorkerCount, func(ctx context.Context, key string) (*candidate, error) {
		return a.collect(ctx, batch.Bucket, key)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Identity Check: the first decoded candidate fixes the reference
	// study identity; mismatches and identity-less streams are rejected.
	router := dicomext.NewRouter(batch.Bucket)
	studyUID := ""
	var reference *candidate
	var accepted []*candidate

	for _, r := range results {
		c, err := r.Value, r.Err
		if err == nil {
			err = a.checkIdentity(c, &studyUID, &reference)
		}
		if err != nil {
			router.RecordRejected(r.Key, err)
			log.Debug().Str("key", r.Key).Err(err).Msg("instance rejected")
		} else {
			router.RecordAccepted(r.Key)
			accepted = append(accepted, c)
		}
		a.metrics.RecordInstance(router.Decisions()[len(router.Decisions())-1], r.Duration)
	}

	if len(accepted) == 0 {
		a.metrics.RecordBatch("empty", time.Since(start))
		return &dicomext.BatchResult{
			Decisions: router.Decisions(),
			Duration:  time.Since(start),
		}, fmt.Errorf("batch %s: %w", batch.Bucket, dicomext.ErrEmptyBatch)
	}

	// Grouping and Assembly run on a single goroutine past the barrier.
	groups := groupBySeries(accepted)
	doc := a.assemble(batch.Bucket, reference, studyUID, groups)

	sets := make([]*tagset.TagSet, len(accepted))
	for i, c := range accepted {
		sets[i] = c.tags
	}
	doc, err := a.chain.Apply(ctx, doc, sets)
	if err != nil {
		a.metrics.RecordBatch("transform_failed", time.Since(start))
		return nil, fmt.Errorf("transform batch %s: %w", studyUID, err)
	}

	a.metrics.RecordBatch("assembled", time.Since(start))
	log.Info().
		Str("study_uid", studyUID).
		Int("series", len(groups)).
		Int("accepted", len(accepted)).
		Int("rejected", len(router.Rejected())).
		Msg("batch assembled")

	return &dicomext.BatchResult{
		Document:      doc,
		StudyUID:      studyUID,
		Decisions:     router.Decisions(),
		SeriesCount:   len(groups),
		InstanceCount: len(accepted),
		Duration:      time.Since(start),
	}, nil
}

// collect decodes one instance and projects it onto the template.
func (a *Aggregator) collect(ctx context.Context, bucket, key string) (*candidate, error) {
	if a.opts.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.ReadTimeout)
		defer cancel()
	}

	ts, read, err := a.reader.ReadTags(ctx, bucket, key)
	a.metrics.RecordRead(read)
	if err != nil {
		return nil, err
	}
	return &candidate{
		key:      key,
		tags:     ts,
		fragment: a.spec.Apply(ts),
	}, nil
}

// checkIdentity enforces the single-study invariant. The first candidate
// with a complete identity becomes the batch reference.
func (a *Aggregator) checkIdentity(c *candidate, studyUID *string, reference **candidate) error {
	if !c.tags.HasIdentity() {
		return fmt.Errorf("instance %s: missing identifying elements: %w", c.key, dicomext.ErrMalformedStream)
	}
	if *reference == nil {
		*studyUID = c.tags.StudyInstanceUID()
		*reference = c
		return nil
	}
	if got := c.tags.StudyInstanceUID(); got != *studyUID {
		return fmt.Errorf("instance %s: study %s, batch reference %s: %w",
			c.key, got, *studyUID, dicomext.ErrStudyIdentityMismatch)
	}
	return nil
}
