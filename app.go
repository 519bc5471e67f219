package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iwanhae/kickoff/internal/collector"
	"github.com/iwanhae/kickoff/internal/config"
	"github.com/iwanhae/kickoff/internal/objectstore"
	"github.com/iwanhae/kickoff/internal/pipeline"
	"github.com/iwanhae/kickoff/internal/warehouse"
	"go.uber.org/zap"
)

type app struct {
	wh     *warehouse.Warehouse
	runner *pipeline.Runner
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	wh, err := warehouse.Open(cfg.WarehousePath, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Store == config.StoreS3 {
		err := wh.ConfigureObjectStore(ctx, warehouse.S3Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region(),
			UseSSL:    cfg.S3SSL,
		})
		if err != nil {
			wh.Close()
			return nil, err
		}
	}

	fetcher := collector.New(cfg.APIURL, cfg.APIKey, cfg.HTTPTimeout)
	p := pipeline.New(fetcher, store, wh, os.DirFS(cfg.QueryDir), logger, pipelineOptions(cfg))
	return &app{wh: wh, runner: pipeline.NewRunner(p)}, nil
}

func (a *app) Close() {
	a.wh.Close()
}

func newStore(cfg *config.Config) (objectstore.Store, error) {
	switch cfg.Store {
	case config.StoreDir:
		return objectstore.NewDir(cfg.LocalBucketDir)
	case config.StoreS3:
		return objectstore.NewMinio(objectstore.S3Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region(),
			UseSSL:    cfg.S3SSL,
			Bucket:    cfg.Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		StartDate:       cfg.StartDate,
		EndDate:         cfg.EndDate,
		FilePrefix:      cfg.FilePrefix,
		IncomingFolder:  cfg.IncomingFolder,
		AnalyticsFolder: cfg.AnalyticsFolder,
		Dataset:         cfg.Dataset,
		IncomingTable:   cfg.IncomingTable,
		TmpDir:          cfg.TmpDir,
		AnalyticsDir:    cfg.AnalyticsDir,
		QueryFiles:      cfg.QueryFiles,
		Workers:         cfg.Workers,
	}
}
