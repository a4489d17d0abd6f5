package transcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"photovault/internal/mediatypes"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestImageQualityMonotonic(t *testing.T) {
	t.Parallel()

	standard := imageQuality(mediatypes.PresetStandard)
	high := imageQuality(mediatypes.PresetHigh)
	max := imageQuality(mediatypes.PresetMax)

	// More aggressive compression means a lower quality parameter.
	if !(standard > high && high > max) {
		t.Errorf("quality not monotonic: standard=%d high=%d max=%d", standard, high, max)
	}
}

func TestVideoCRFMonotonic(t *testing.T) {
	t.Parallel()

	if !(videoCRF(mediatypes.PresetStandard) < videoCRF(mediatypes.PresetHigh) &&
		videoCRF(mediatypes.PresetHigh) < videoCRF(mediatypes.PresetMax)) {
		t.Errorf("CRF not monotonic: %s %s %s",
			videoCRF(mediatypes.PresetStandard), videoCRF(mediatypes.PresetHigh), videoCRF(mediatypes.PresetMax))
	}
}

func TestTranscodeImageFallback(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	data := pngBytes(t, 800, 600)

	// Without vips initialized the engine takes the pure-Go path.
	result, err := e.TranscodeImage(data, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("TranscodeImage failed: %v", err)
	}

	if result.Width != 800 || result.Height != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600", result.Width, result.Height)
	}
	if len(result.Data) == 0 {
		t.Error("no compressed bytes produced")
	}
	if len(result.Thumbnail) == 0 {
		t.Error("no thumbnail produced")
	}
	if result.ThumbExt != ".jpg" {
		t.Errorf("ThumbExt = %q, want .jpg", result.ThumbExt)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(result.Thumbnail))
	if err != nil {
		t.Fatalf("thumbnail is not valid JPEG: %v", err)
	}
	if cfg.Width > ThumbnailMaxDimension || cfg.Height > ThumbnailMaxDimension {
		t.Errorf("thumbnail %dx%d exceeds max dimension %d", cfg.Width, cfg.Height, ThumbnailMaxDimension)
	}
}

func TestTranscodeImageThumbnailNoUpscale(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	data := pngBytes(t, 100, 80)

	result, err := e.TranscodeImage(data, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("TranscodeImage failed: %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(result.Thumbnail))
	if err != nil {
		t.Fatalf("thumbnail decode failed: %v", err)
	}
	if cfg.Width > 100 || cfg.Height > 80 {
		t.Errorf("thumbnail %dx%d upscaled beyond source 100x80", cfg.Width, cfg.Height)
	}
}

func TestTranscodeImagePresetAffectsSize(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	data := pngBytes(t, 640, 480)

	standard, err := e.TranscodeImage(data, mediatypes.PresetStandard)
	if err != nil {
		t.Fatalf("standard preset failed: %v", err)
	}
	max, err := e.TranscodeImage(data, mediatypes.PresetMax)
	if err != nil {
		t.Fatalf("max preset failed: %v", err)
	}

	if len(max.Data) > len(standard.Data) {
		t.Errorf("max preset produced %d bytes, larger than standard's %d", len(max.Data), len(standard.Data))
	}
}

func TestTranscodeImageCorruptInput(t *testing.T) {
	t.Parallel()

	e := NewEngine()

	_, err := e.TranscodeImage([]byte("definitely not an image"), mediatypes.PresetStandard)
	if err == nil {
		t.Fatal("expected error for corrupt input")
	}

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("error %T is not a *transcode.Error", err)
	}
	if terr.MediaType != mediatypes.MediaTypeImage {
		t.Errorf("MediaType = %q, want image", terr.MediaType)
	}
}
