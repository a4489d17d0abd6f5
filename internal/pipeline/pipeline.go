package pipeline

import (
	"context"
	"time"

	"photovault/internal/catalog"
	"photovault/internal/exif"
	"photovault/internal/logging"
	"photovault/internal/mediatypes"
	"photovault/internal/metrics"
	"photovault/internal/transcode"
	"photovault/internal/vault"
)

// beneficialNumerator/Denominator define the economic guard: a conversion
// is committed only when the vault artifact is meaningfully smaller than
// the original (more than 2% savings).
const (
	beneficialNumerator   = 98
	beneficialDenominator = 100
)

// Transcoder converts originals into vault-native representations.
// Satisfied by *transcode.Engine; tests inject fakes.
type Transcoder interface {
	TranscodeImage(data []byte, preset mediatypes.Preset) (*transcode.ImageResult, error)
	TranscodeVideo(ctx context.Context, srcPath, destPath string, preset mediatypes.Preset) (*transcode.VideoResult, error)
}

// Extractor pulls embedded capture metadata from a blob. Never fails.
type Extractor interface {
	Extract(data []byte) exif.Metadata
}

type exifExtractor struct{}

func (exifExtractor) Extract(data []byte) exif.Metadata {
	return exif.Extract(data)
}

// Pipeline runs import batches against a vault.
type Pipeline struct {
	transcoder Transcoder
	extractor  Extractor
	workers    int
}

// New creates a Pipeline wired to the real transcoding engine and EXIF
// extractor.
func New() *Pipeline {
	return &Pipeline{
		transcoder: transcode.NewEngine(),
		extractor:  exifExtractor{},
		workers:    workerCount(),
	}
}

// SetTranscoder replaces the transcoding engine.
func (p *Pipeline) SetTranscoder(t Transcoder) {
	p.transcoder = t
}

// SetExtractor replaces the metadata extractor.
func (p *Pipeline) SetExtractor(e Extractor) {
	p.extractor = e
}

// InitializeVault creates the vault layout and catalog schema at path.
// Idempotent; failures here are fatal to the invocation.
func (p *Pipeline) InitializeVault(ctx context.Context, path string) error {
	if _, err := vault.EnsureLayout(path); err != nil {
		return err
	}
	cat, err := catalog.Open(ctx, vault.DatabasePath(path))
	if err != nil {
		return err
	}
	return cat.Close()
}

// Query reads catalog rows for browsing. An empty vault yields an empty
// slice, not an error.
func (p *Pipeline) Query(ctx context.Context, vaultPath string, params catalog.QueryParams) ([]catalog.Asset, error) {
	cat, err := catalog.Open(ctx, vault.DatabasePath(vaultPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := cat.Close(); closeErr != nil {
			logging.Warn("failed to close catalog: %v", closeErr)
		}
	}()

	return cat.Query(ctx, params)
}

// GetAsset reads a single catalog row by content id.
func (p *Pipeline) GetAsset(ctx context.Context, vaultPath, id string) (*catalog.Asset, error) {
	cat, err := catalog.Open(ctx, vault.DatabasePath(vaultPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := cat.Close(); closeErr != nil {
			logging.Warn("failed to close catalog: %v", closeErr)
		}
	}()

	return cat.GetAsset(ctx, id)
}

// Stats returns catalog-wide totals for the vault.
func (p *Pipeline) Stats(ctx context.Context, vaultPath string) (*catalog.Stats, error) {
	cat, err := catalog.Open(ctx, vault.DatabasePath(vaultPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := cat.Close(); closeErr != nil {
			logging.Warn("failed to close catalog: %v", closeErr)
		}
	}()

	return cat.Stats(ctx)
}

// ImportBatch processes every eligible file under sourceDir into the
// vault at vaultPath and returns the number of files converted. Per-file
// failures are logged and skipped; only vault or catalog initialization
// failures abort the batch.
func (p *Pipeline) ImportBatch(ctx context.Context, vaultPath, sourceDir string, preset mediatypes.Preset) (int, error) {
	start := time.Now()

	layout, err := vault.EnsureLayout(vaultPath)
	if err != nil {
		return 0, err
	}

	release, err := acquireImportLock(layout.MetaDir)
	if err != nil {
		return 0, err
	}
	defer release()

	cat, err := catalog.Open(ctx, vault.DatabasePath(vaultPath))
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := cat.Close(); closeErr != nil {
			logging.Warn("failed to close catalog: %v", closeErr)
		}
	}()

	candidates, err := enumerate(sourceDir)
	if err != nil {
		return 0, err
	}
	logging.Info("Importing %d candidate files from %s (preset: %s)", len(candidates), sourceDir, preset)

	converted := 0
	commit := func(out *outcome) {
		mt := string(out.cand.mediaType)
		switch {
		case out.err != nil:
			metrics.ImportFilesTotal.WithLabelValues(mt, "failed").Inc()
			logging.Error("Failed to import %s: %v", out.cand.path, out.err)
		case out.skipped:
			metrics.ImportFilesTotal.WithLabelValues(mt, "skipped").Inc()
			logging.Info("Skipping %s: conversion not beneficial (%d -> %d bytes)",
				out.cand.path, out.asset.BytesOriginal, out.asset.BytesVault)
		default:
			if err := p.commitAsset(ctx, cat, layout, out); err != nil {
				metrics.ImportFilesTotal.WithLabelValues(mt, "failed").Inc()
				logging.Error("Failed to commit %s: %v", out.cand.path, err)
				return
			}
			metrics.ImportFilesTotal.WithLabelValues(mt, "converted").Inc()
			metrics.ImportBytesSaved.Add(float64(out.asset.BytesSaved()))
			converted++
		}
	}

	runBatch(ctx, p.workers, candidates, func(ctx context.Context, cand candidate) *outcome {
		return p.processFile(ctx, layout, cand, preset)
	}, commit)

	metrics.ImportRunsTotal.Inc()
	metrics.ImportLastRunDuration.Set(time.Since(start).Seconds())
	logging.Info("Import batch complete: %d/%d converted in %v", converted, len(candidates), time.Since(start).Round(time.Millisecond))

	return converted, nil
}
