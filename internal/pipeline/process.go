package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"photovault/internal/catalog"
	"photovault/internal/content"
	"photovault/internal/logging"
	"photovault/internal/mediatypes"
	"photovault/internal/transcode"
	"photovault/internal/vault"
)

// outcome is the result of processing one candidate. Exactly one of err,
// skipped, or a committable asset is meaningful. Image artifacts stay in
// memory until the collector commits them; video artifacts are written to
// their final path during processing because ffmpeg streams to disk.
type outcome struct {
	cand     candidate
	asset    *catalog.Asset
	terms    []string
	origData []byte
	image    *transcode.ImageResult
	skipped  bool
	err      error
}

func failed(cand candidate, err error) *outcome {
	return &outcome{cand: cand, err: err}
}

// processFile runs one candidate through the import state machine. It is
// called from worker goroutines and must not touch shared state; catalog
// writes and image artifact writes happen later in commitAsset.
func (p *Pipeline) processFile(ctx context.Context, layout *vault.Layout, cand candidate, preset mediatypes.Preset) *outcome {
	info, err := os.Stat(cand.path)
	if err != nil {
		return failed(cand, fmt.Errorf("failed to stat: %w", err))
	}

	data, err := os.ReadFile(cand.path)
	if err != nil {
		return failed(cand, fmt.Errorf("failed to read: %w", err))
	}

	id := content.Identify(data)
	logging.Debug("Processing %s (%s, %d bytes, id %s)", cand.path, cand.mediaType, len(data), id)

	out := &outcome{
		cand:     cand,
		origData: data,
		asset: &catalog.Asset{
			ID:            id,
			OriginalPath:  cand.path,
			MediaType:     cand.mediaType,
			BytesOriginal: int64(len(data)),
			ChecksumOrig:  content.Checksum(data),
			QualityPreset: preset,
			State:         catalog.StateVerified,
		},
	}

	var extras []string
	switch cand.mediaType {
	case mediatypes.MediaTypeImage:
		extras, err = p.processImage(layout, out, data, preset, info.ModTime())
	case mediatypes.MediaTypeVideo:
		extras, err = p.processVideo(ctx, layout, out, preset, info.ModTime())
	default:
		return failed(cand, fmt.Errorf("unsupported media type %q", cand.mediaType))
	}
	if err != nil {
		return failed(cand, err)
	}

	// Economic guard: keep the original when conversion barely shrinks
	// it. No row is recorded, so a later run with a stronger preset can
	// revisit the file.
	if out.asset.BytesVault*beneficialDenominator >= out.asset.BytesOriginal*beneficialNumerator {
		out.skipped = true
		if cand.mediaType == mediatypes.MediaTypeVideo {
			if rmErr := os.Remove(out.asset.VaultPath); rmErr != nil && !os.IsNotExist(rmErr) {
				logging.Warn("failed to remove unprofitable video artifact %s: %v", out.asset.VaultPath, rmErr)
			}
		}
		return out
	}

	out.terms = indexTerms(out.asset, extras)
	return out
}

// processImage transcodes in memory and fills in the asset's vault
// fields. Artifact bytes ride along in out.image until commit.
func (p *Pipeline) processImage(layout *vault.Layout, out *outcome, data []byte, preset mediatypes.Preset, mtime time.Time) ([]string, error) {
	result, err := p.transcoder.TranscodeImage(data, preset)
	if err != nil {
		return nil, err
	}

	meta := p.extractor.Extract(data)

	createdAt := mtime
	if meta.CapturedAt != nil {
		createdAt = *meta.CapturedAt
	}
	out.asset.CreatedAt = createdAt.UnixMilli()

	bucket, err := vault.BucketPath(layout.ImagesDir, createdAt)
	if err != nil {
		return nil, err
	}
	out.asset.VaultPath = filepath.Join(bucket, out.asset.ID+result.Ext)
	out.asset.BytesVault = int64(len(result.Data))
	out.asset.ChecksumVault = content.Checksum(result.Data)

	if result.Width > 0 {
		w, h := result.Width, result.Height
		out.asset.Width = &w
		out.asset.Height = &h
	}
	out.asset.Latitude = meta.Latitude
	out.asset.Longitude = meta.Longitude
	if meta.Place != "" {
		place := meta.Place
		out.asset.Place = &place
	}
	out.image = result

	var extras []string
	if meta.CameraMake != "" {
		extras = append(extras, meta.CameraMake)
	}
	if meta.CameraModel != "" {
		extras = append(extras, meta.CameraModel)
	}
	return extras, nil
}

// processVideo encodes straight into the vault bucket. Videos carry no
// trusted embedded capture time, so createdAt is always the file mtime.
func (p *Pipeline) processVideo(ctx context.Context, layout *vault.Layout, out *outcome, preset mediatypes.Preset, mtime time.Time) ([]string, error) {
	out.asset.CreatedAt = mtime.UnixMilli()

	bucket, err := vault.BucketPath(layout.VideosDir, mtime)
	if err != nil {
		return nil, err
	}
	dest := filepath.Join(bucket, out.asset.ID+mediatypes.VaultVideoExt)

	result, err := p.transcoder.TranscodeVideo(ctx, out.cand.path, dest, preset)
	if err != nil {
		return nil, err
	}

	encoded, err := os.ReadFile(result.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded video: %w", err)
	}
	out.asset.VaultPath = result.Path
	out.asset.BytesVault = int64(len(encoded))
	out.asset.ChecksumVault = content.Checksum(encoded)

	if result.Width > 0 {
		w, h := result.Width, result.Height
		out.asset.Width = &w
		out.asset.Height = &h
	}
	if result.DurationMs > 0 {
		d := result.DurationMs
		out.asset.DurationMs = &d
	}
	return nil, nil
}

// indexTerms builds the searchable terms for an asset: capture year,
// original filename, and any camera extras. The catalog lowercases on
// insert; duplicates across runs are intentional.
func indexTerms(asset *catalog.Asset, extras []string) []string {
	year := time.UnixMilli(asset.CreatedAt).Local().Year()
	terms := []string{
		strconv.Itoa(year),
		strings.ToLower(filepath.Base(asset.OriginalPath)),
	}
	return append(terms, extras...)
}

// commitAsset persists one successful outcome: vault artifacts for
// images, the backup copy of the original, then the catalog row and
// index terms. Runs only on the collector goroutine.
func (p *Pipeline) commitAsset(ctx context.Context, cat *catalog.Catalog, layout *vault.Layout, out *outcome) error {
	if out.image != nil {
		if err := writeImageArtifacts(layout, out); err != nil {
			return err
		}
	}

	if err := writeBackup(layout, out); err != nil {
		return err
	}

	if err := cat.UpsertAsset(ctx, out.asset); err != nil {
		return err
	}
	if err := cat.AppendIndexTerms(ctx, out.asset.ID, out.terms); err != nil {
		return err
	}

	logging.Debug("Committed %s as %s (%d -> %d bytes)",
		out.cand.path, out.asset.ID, out.asset.BytesOriginal, out.asset.BytesVault)
	return nil
}

// writeImageArtifacts lands the encoded image and its thumbnail on disk.
// The bucket directory already exists; BucketPath created it during
// processing.
func writeImageArtifacts(layout *vault.Layout, out *outcome) error {
	if err := os.WriteFile(out.asset.VaultPath, out.image.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write image artifact: %w", err)
	}

	thumbPath := filepath.Join(layout.ThumbsDir, out.asset.ID+out.image.ThumbExt)
	if err := os.WriteFile(thumbPath, out.image.Thumbnail, 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}

// writeBackup copies the untouched original under backups/<id>/ keeping
// its filename, so same-named files from different shoots cannot clobber
// each other.
func writeBackup(layout *vault.Layout, out *outcome) error {
	dir := filepath.Join(layout.BackupsDir, out.asset.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	name := filepath.Base(out.asset.OriginalPath)
	if err := os.WriteFile(filepath.Join(dir, name), out.origData, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}
