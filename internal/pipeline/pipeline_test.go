package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photovault/internal/catalog"
	"photovault/internal/exif"
	"photovault/internal/mediatypes"
	"photovault/internal/transcode"
	"photovault/internal/vault"
)

// fakeTranscoder produces deterministic artifacts without any codec
// dependency. ratio controls artifact size as a percentage of the input;
// failSubstring makes inputs containing it fail, to exercise per-file
// isolation.
type fakeTranscoder struct {
	ratio         int
	failSubstring string
}

func (f *fakeTranscoder) TranscodeImage(data []byte, _ mediatypes.Preset) (*transcode.ImageResult, error) {
	if f.failSubstring != "" && bytes.Contains(data, []byte(f.failSubstring)) {
		return nil, errors.New("image decode failed")
	}
	return &transcode.ImageResult{
		Data:      f.shrink(data),
		Ext:       mediatypes.VaultImageExt,
		Thumbnail: []byte("thumbnail"),
		ThumbExt:  mediatypes.ThumbnailExt,
		Width:     640,
		Height:    480,
	}, nil
}

func (f *fakeTranscoder) TranscodeVideo(_ context.Context, srcPath, destPath string, _ mediatypes.Preset) (*transcode.VideoResult, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, err
	}
	if f.failSubstring != "" && bytes.Contains(data, []byte(f.failSubstring)) {
		return nil, errors.New("video encode failed")
	}
	if err := os.WriteFile(destPath, f.shrink(data), 0o644); err != nil {
		return nil, err
	}
	return &transcode.VideoResult{
		Path:       destPath,
		Ext:        mediatypes.VaultVideoExt,
		Width:      1920,
		Height:     1080,
		DurationMs: 1500,
	}, nil
}

func (f *fakeTranscoder) shrink(data []byte) []byte {
	ratio := f.ratio
	if ratio == 0 {
		ratio = 50
	}
	n := len(data) * ratio / 100
	if n < 1 {
		n = 1
	}
	return bytes.Repeat([]byte{0xAB}, n)
}

type fakeExtractor struct {
	meta exif.Metadata
}

func (f *fakeExtractor) Extract([]byte) exif.Metadata {
	return f.meta
}

func newTestPipeline(t *testing.T, tr Transcoder, ex Extractor) *Pipeline {
	t.Helper()
	p := New()
	p.SetTranscoder(tr)
	if ex == nil {
		ex = &fakeExtractor{}
	}
	p.SetExtractor(ex)
	return p
}

func writeSourceFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := bytes.Repeat([]byte(name+"|"), size/(len(name)+1)+1)[:size]
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestImportBatchMixedSources(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()

	for i := 0; i < 6; i++ {
		writeSourceFile(t, srcDir, fmt.Sprintf("photo%d.jpg", i), 4000)
	}
	for i := 0; i < 4; i++ {
		writeSourceFile(t, srcDir, fmt.Sprintf("notes%d.txt", i), 100)
	}

	p := newTestPipeline(t, &fakeTranscoder{}, nil)
	converted, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("ImportBatch failed: %v", err)
	}
	if converted != 6 {
		t.Fatalf("converted = %d, want 6", converted)
	}

	assets, err := p.Query(context.Background(), vaultDir, catalog.QueryParams{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(assets) != 6 {
		t.Fatalf("catalog has %d assets, want 6", len(assets))
	}

	thumbs, err := os.ReadDir(filepath.Join(vaultDir, "thumbs"))
	if err != nil {
		t.Fatalf("read thumbs dir: %v", err)
	}
	if len(thumbs) != 6 {
		t.Fatalf("thumbs dir has %d entries, want 6", len(thumbs))
	}

	for _, a := range assets {
		if _, err := os.Stat(a.VaultPath); err != nil {
			t.Errorf("vault artifact missing for %s: %v", a.ID, err)
		}
		backup := filepath.Join(vaultDir, "backups", a.ID, filepath.Base(a.OriginalPath))
		if _, err := os.Stat(backup); err != nil {
			t.Errorf("backup missing for %s: %v", a.ID, err)
		}
		if a.BytesVault >= a.BytesOriginal {
			t.Errorf("asset %s: vault bytes %d not smaller than original %d", a.ID, a.BytesVault, a.BytesOriginal)
		}
	}

	// Source files are never touched.
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		t.Fatalf("read source dir: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("source dir has %d entries after import, want 10", len(entries))
	}
}

func TestImportBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()

	writeSourceFile(t, srcDir, "good1.jpg", 2000)
	writeSourceFile(t, srcDir, "broken.jpg", 2000)
	writeSourceFile(t, srcDir, "good2.jpg", 2000)

	p := newTestPipeline(t, &fakeTranscoder{failSubstring: "broken"}, nil)
	converted, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("ImportBatch failed: %v", err)
	}
	if converted != 2 {
		t.Fatalf("converted = %d, want 2", converted)
	}

	assets, err := p.Query(context.Background(), vaultDir, catalog.QueryParams{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("catalog has %d assets, want 2", len(assets))
	}
	for _, a := range assets {
		if strings.Contains(a.OriginalPath, "broken") {
			t.Errorf("failed file %s was committed", a.OriginalPath)
		}
	}
}

func TestImportBatchIdempotent(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "holiday.jpg", 3000)

	p := newTestPipeline(t, &fakeTranscoder{}, nil)
	ctx := context.Background()

	for run := 0; run < 2; run++ {
		converted, err := p.ImportBatch(ctx, vaultDir, srcDir, mediatypes.PresetStandard)
		if err != nil {
			t.Fatalf("run %d: ImportBatch failed: %v", run, err)
		}
		if converted != 1 {
			t.Fatalf("run %d: converted = %d, want 1", run, converted)
		}
	}

	assets, err := p.Query(ctx, vaultDir, catalog.QueryParams{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("catalog has %d assets after re-import, want 1", len(assets))
	}

	// Terms accumulate across runs but searches still group to one row.
	found, err := p.Query(ctx, vaultDir, catalog.QueryParams{Text: "holiday.jpg"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("search returned %d rows, want 1", len(found))
	}
}

func TestImportBatchCaptureTimestampBucketing(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "shot.jpg", 2000)

	captured := time.Date(2021, time.July, 4, 12, 0, 0, 0, time.Local)
	p := newTestPipeline(t, &fakeTranscoder{}, &fakeExtractor{meta: exif.Metadata{CapturedAt: &captured}})

	if _, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard); err != nil {
		t.Fatalf("ImportBatch failed: %v", err)
	}

	assets, err := p.Query(context.Background(), vaultDir, catalog.QueryParams{Text: "2021"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("search for capture year returned %d rows, want 1", len(assets))
	}

	a := assets[0]
	if a.CreatedAt != captured.UnixMilli() {
		t.Errorf("CreatedAt = %d, want %d", a.CreatedAt, captured.UnixMilli())
	}
	wantBucket := filepath.Join(vaultDir, "images", "21", "07")
	if filepath.Dir(a.VaultPath) != wantBucket {
		t.Errorf("vault path bucket = %s, want %s", filepath.Dir(a.VaultPath), wantBucket)
	}
}

func TestImportBatchModTimeFallback(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()
	path := writeSourceFile(t, srcDir, "undated.jpg", 2000)

	mtime := time.Date(2019, time.March, 7, 9, 30, 0, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	p := newTestPipeline(t, &fakeTranscoder{}, nil)
	if _, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard); err != nil {
		t.Fatalf("ImportBatch failed: %v", err)
	}

	assets, err := p.Query(context.Background(), vaultDir, catalog.QueryParams{Text: "2019"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("search for mtime year returned %d rows, want 1", len(assets))
	}
	if got := filepath.Dir(assets[0].VaultPath); got != filepath.Join(vaultDir, "images", "19", "03") {
		t.Errorf("vault path bucket = %s, want images/19/03", got)
	}
}

func TestImportBatchSkipsUnprofitableConversion(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "tiny.jpg", 1000)

	// Artifact is the same size as the original, below the savings bar.
	p := newTestPipeline(t, &fakeTranscoder{ratio: 100}, nil)
	converted, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("ImportBatch failed: %v", err)
	}
	if converted != 0 {
		t.Fatalf("converted = %d, want 0", converted)
	}

	assets, err := p.Query(context.Background(), vaultDir, catalog.QueryParams{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(assets) != 0 {
		t.Fatalf("catalog has %d assets, want 0", len(assets))
	}
}

func TestImportBatchVideoFlow(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()
	path := writeSourceFile(t, srcDir, "clip.mp4", 5000)

	mtime := time.Date(2023, time.November, 20, 8, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	p := newTestPipeline(t, &fakeTranscoder{}, nil)
	converted, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("ImportBatch failed: %v", err)
	}
	if converted != 1 {
		t.Fatalf("converted = %d, want 1", converted)
	}

	assets, err := p.Query(context.Background(), vaultDir, catalog.QueryParams{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("catalog has %d assets, want 1", len(assets))
	}

	a := assets[0]
	if a.MediaType != mediatypes.MediaTypeVideo {
		t.Errorf("media type = %s, want video", a.MediaType)
	}
	if a.DurationMs == nil || *a.DurationMs != 1500 {
		t.Errorf("duration = %v, want 1500", a.DurationMs)
	}
	wantBucket := filepath.Join(vaultDir, "videos", "23", "11")
	if filepath.Dir(a.VaultPath) != wantBucket {
		t.Errorf("vault path bucket = %s, want %s", filepath.Dir(a.VaultPath), wantBucket)
	}
	if _, err := os.Stat(a.VaultPath); err != nil {
		t.Errorf("video artifact missing: %v", err)
	}
}

func TestImportBatchUnprofitableVideoArtifactRemoved(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "clip.mp4", 5000)

	p := newTestPipeline(t, &fakeTranscoder{ratio: 100}, nil)
	converted, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("ImportBatch failed: %v", err)
	}
	if converted != 0 {
		t.Fatalf("converted = %d, want 0", converted)
	}

	// The encoded file must not linger in the bucket.
	var leftovers []string
	err = filepath.WalkDir(filepath.Join(vaultDir, "videos"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk videos dir: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("unprofitable video artifacts left behind: %v", leftovers)
	}
}

func TestImportBatchLockContention(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "photo.jpg", 2000)

	layout, err := vault.EnsureLayout(vaultDir)
	if err != nil {
		t.Fatalf("EnsureLayout failed: %v", err)
	}
	release, err := acquireImportLock(layout.MetaDir)
	if err != nil {
		t.Fatalf("acquireImportLock failed: %v", err)
	}

	p := newTestPipeline(t, &fakeTranscoder{}, nil)
	if _, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard); err == nil {
		t.Fatal("ImportBatch succeeded while lock was held")
	} else if !strings.Contains(err.Error(), "another import") {
		t.Fatalf("unexpected error: %v", err)
	}

	// After release the same vault imports normally.
	release()
	if _, err := p.ImportBatch(context.Background(), vaultDir, srcDir, mediatypes.PresetStandard); err != nil {
		t.Fatalf("ImportBatch after release failed: %v", err)
	}
}

func TestEnumerateExcludesHiddenPaths(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "visible.jpg", 100)
	writeSourceFile(t, srcDir, ".hidden.jpg", 100)
	writeSourceFile(t, srcDir, filepath.Join(".cache", "nested.jpg"), 100)
	writeSourceFile(t, srcDir, filepath.Join("album", "second.png"), 100)

	candidates, err := enumerate(srcDir)
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("enumerate returned %d candidates, want 2", len(candidates))
	}
	for _, c := range candidates {
		if strings.Contains(c.path, "hidden") || strings.Contains(c.path, ".cache") {
			t.Errorf("hidden path enumerated: %s", c.path)
		}
	}
}

func TestInitializeVaultIdempotent(t *testing.T) {
	t.Parallel()

	vaultDir := t.TempDir()
	p := newTestPipeline(t, &fakeTranscoder{}, nil)

	for i := 0; i < 2; i++ {
		if err := p.InitializeVault(context.Background(), vaultDir); err != nil {
			t.Fatalf("InitializeVault run %d failed: %v", i, err)
		}
	}

	m, err := vault.ReadManifest(vaultDir)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.CreatedAt == 0 {
		t.Error("manifest createdAt is zero")
	}
}
