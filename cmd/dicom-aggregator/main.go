// Command dicom-aggregator assembles FHIR ImagingStudy documents from DICOM
// SOP Instances in S3 and delivers them to an AWS HealthLake datastore.
//
// By default it consumes batch messages from an SQS queue, one study per
// message. With -batch it processes a single batch payload and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/deliver"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/service"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/store"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/transform"
)

type envConfig struct {
	region             string
	byteLimit          int64
	templateBucket     string
	templateKey        string
	tableKey           string
	healthlakeEndpoint string
	batchQueueURL      string
	badQueueURL        string
	endpointTemplate   string
}

func loadEnv() (envConfig, error) {
	cfg := envConfig{
		region:             os.Getenv("REGION"),
		byteLimit:          dicomext.DefaultByteLimit,
		templateBucket:     os.Getenv("TEMPLATE_BUCKET"),
		templateKey:        os.Getenv("TEMPLATE_KEY"),
		tableKey:           os.Getenv("TEMPLATE_MAP_KEY"),
		healthlakeEndpoint: os.Getenv("HEALTHLAKE_ENDPOINT"),
		batchQueueURL:      os.Getenv("BATCH_QUEUE"),
		badQueueURL:        os.Getenv("BAD_QUEUE"),
		endpointTemplate:   os.Getenv("ENDPOINT_TEMPLATE"),
	}

	if raw := os.Getenv("SOP_BYTES_READ"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid SOP_BYTES_READ %q", raw)
		}
		cfg.byteLimit = n
	}

	switch {
	case cfg.region == "":
		return cfg, fmt.Errorf("REGION is required")
	case cfg.templateBucket == "":
		return cfg, fmt.Errorf("TEMPLATE_BUCKET is required")
	case cfg.templateKey == "":
		return cfg, fmt.Errorf("TEMPLATE_KEY is required")
	case cfg.tableKey == "":
		return cfg, fmt.Errorf("TEMPLATE_MAP_KEY is required")
	case cfg.healthlakeEndpoint == "":
		return cfg, fmt.Errorf("HEALTHLAKE_ENDPOINT is required")
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).
		Level(lvl).
		With().Timestamp().Str("component", "dicom-aggregator").
		Logger()
}

func main() {
	batchJSON := flag.String("batch", "", "process one batch payload (JSON) and exit")
	metricsAddr := flag.String("metrics-addr", ":9090", "listen address for the Prometheus endpoint")
	flag.Parse()

	log := newLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := loadEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.region))
	if err != nil {
		log.Fatal().Err(err).Msg("loading AWS configuration")
	}

	metrics := dicomext.NewMetrics(prometheus.DefaultRegisterer)
	objects := store.NewS3FromConfig(awsCfg)
	sqsClient := sqs.NewFromConfig(awsCfg)
	deliverer := deliver.NewHealthLake(cfg.healthlakeEndpoint, cfg.region, awsCfg.Credentials)

	chain := transform.NewChain(transform.InstanceCount())
	if cfg.endpointTemplate != "" {
		chain.Append(transform.EndpointRewrite(cfg.endpointTemplate))
	}

	svc := service.New(objects, objects, deliverer, service.Config{
		TemplateBucket: cfg.templateBucket,
		TemplateKey:    cfg.templateKey,
		TableKey:       cfg.tableKey,
	}).
		WithTransform(chain).
		WithMetrics(metrics).
		WithLogger(log).
		WithOptions(
			dicomext.WithByteLimit(cfg.byteLimit),
			dicomext.WithEndpointTemplate(cfg.endpointTemplate),
		)
	if cfg.badQueueURL != "" {
		svc = svc.WithBadDataSink(deliver.NewSQS(sqsClient, cfg.badQueueURL))
	}

	if *batchJSON != "" {
		runOnce(ctx, log, svc, *batchJSON)
		return
	}

	if cfg.batchQueueURL == "" {
		log.Fatal().Msg("BATCH_QUEUE is required unless -batch is given")
	}

	go serveMetrics(log, *metricsAddr)

	log.Info().Str("queue", cfg.batchQueueURL).Str("version", dicomext.Version).Msg("consuming batches")
	consumer := service.NewConsumer(sqsClient, cfg.batchQueueURL, svc).WithLogger(log)
	if err := consumer.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("shutdown complete")
}

func runOnce(ctx context.Context, log zerolog.Logger, svc *service.Service, payload string) {
	batch, err := service.ParseBatch([]byte(payload))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid batch payload")
	}

	result, err := svc.ProcessBatch(ctx, batch)
	if err != nil {
		log.Fatal().Err(err).Msg("batch failed")
	}
	log.Info().
		Str("study_uid", result.StudyUID).
		Int("series", result.SeriesCount).
		Int("accepted", result.InstanceCount).
		Int("rejected", result.RejectedCount()).
		Msg("batch delivered")
}

func serveMetrics(log zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics endpoint stopped")
	}
}
