package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/aggregate"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/deliver"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/mapping"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/store"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/transform"
)

// Config names the mapping configuration objects.
type Config struct {
	// TemplateBucket holds both configuration documents.
	TemplateBucket string

	// TemplateKey is the base template document.
	TemplateKey string

	// TableKey is the tag-to-field projection table.
	TableKey string
}

// Service processes batches end to end. It is safe for concurrent batches:
// the loader caches immutable mapping specs, and per-batch state lives in
// the aggregator call.
type Service struct {
	objects   store.ObjectStore
	loader    *mapping.Loader
	deliverer deliver.Deliverer
	sink      deliver.BadDataSink
	chain     *transform.Chain
	cfg       Config
	opts      []dicomext.Option
	metrics   *dicomext.Metrics
	log       zerolog.Logger
}

// New creates a Service. The bad-data sink, transform chain, metrics and
// logger are attached with the With* methods.
func New(objects store.ObjectStore, configs store.ConfigStore, deliverer deliver.Deliverer, cfg Config) *Service {
	return &Service{
		objects:   objects,
		loader:    mapping.NewLoader(configs),
		deliverer: deliverer,
		chain:     transform.NewChain(transform.InstanceCount()),
		cfg:       cfg,
		log:       zerolog.Nop(),
	}
}

// WithBadDataSink attaches the sink receiving rejected decisions.
func (s *Service) WithBadDataSink(sink deliver.BadDataSink) *Service {
	s.sink = sink
	return s
}

// WithTransform replaces the post-assembly transform chain.
func (s *Service) WithTransform(chain *transform.Chain) *Service {
	if chain != nil {
		s.chain = chain
	}
	return s
}

// WithOptions sets the aggregator options applied to every batch.
func (s *Service) WithOptions(opts ...dicomext.Option) *Service {
	s.opts = opts
	return s
}

// WithMetrics attaches Prometheus collectors.
func (s *Service) WithMetrics(m *dicomext.Metrics) *Service {
	s.metrics = m
	return s
}

// WithLogger sets the logger. The default discards all output.
func (s *Service) WithLogger(log zerolog.Logger) *Service {
	s.log = log
	return s
}

// ProcessBatch runs one batch: configuration load, aggregation, delivery,
// bad-data dispatch. A configuration failure is fatal before any instance is
// touched; a batch with zero accepted instances dispatches its rejections
// and returns ErrEmptyBatch.
func (s *Service) ProcessBatch(ctx context.Context, batch dicomext.Batch) (*dicomext.BatchResult, error) {
	batchID := uuid.NewString()
	log := s.log.With().Str("batch_id", batchID).Str("bucket", batch.Bucket).Logger()

	spec, err := s.loader.Load(ctx, s.cfg.TemplateBucket, s.cfg.TemplateKey, s.cfg.TableKey)
	if err != nil {
		log.Error().Err(err).Msg("mapping configuration unavailable")
		return nil, fmt.Errorf("batch %s: %w", batchID, err)
	}

	agg := aggregate.New(s.objects, spec, s.opts...).
		WithTransform(s.chain).
		WithMetrics(s.metrics).
		WithLogger(log)

	result, procErr := agg.Process(ctx, batch)

	if result != nil {
		if err := s.dispatchRejected(ctx, result); err != nil {
			log.Warn().Err(err).Msg("bad-data dispatch failed")
		}
	}
	if procErr != nil {
		return result, procErr
	}

	if err := s.deliverer.Deliver(ctx, result.Document); err != nil {
		log.Error().Err(err).Str("study_uid", result.StudyUID).Msg("delivery failed")
		return result, fmt.Errorf("deliver study %s: %w", result.StudyUID, err)
	}

	log.Info().
		Str("study_uid", result.StudyUID).
		Int("series", result.SeriesCount).
		Int("accepted", result.InstanceCount).
		Int("rejected", result.RejectedCount()).
		Dur("took", result.Duration).
		Msg("batch delivered")
	return result, nil
}

func (s *Service) dispatchRejected(ctx context.Context, result *dicomext.BatchResult) error {
	if s.sink == nil {
		return nil
	}
	rejected := result.Rejected()
	if len(rejected) == 0 {
		return nil
	}
	return s.sink.Dispatch(ctx, rejected)
}
