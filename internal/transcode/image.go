package transcode

import (
	"bytes"
	"image"
	"image/jpeg"
	"time"

	"photovault/internal/logging"
	"photovault/internal/mediatypes"
	"photovault/internal/metrics"

	// Fallback-path format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// ThumbnailMaxDimension bounds thumbnail width and height. Smaller
	// inputs are never upscaled.
	ThumbnailMaxDimension = 320
	// thumbnailQuality is the fixed JPEG quality of thumbnails,
	// independent of the import preset.
	thumbnailQuality = 80
)

// imageQuality maps a preset to the WebP quality parameter. More
// aggressive compression means a lower numeric quality.
func imageQuality(preset mediatypes.Preset) int {
	switch preset {
	case mediatypes.PresetMax:
		return 50
	case mediatypes.PresetHigh:
		return 65
	default:
		return 80
	}
}

// ImageResult is a compressed vault-native still image plus its thumbnail.
type ImageResult struct {
	Data      []byte // compressed image bytes
	Ext       string // vault extension of Data (".webp", or ".jpg" on the fallback path)
	Thumbnail []byte // JPEG thumbnail bytes
	ThumbExt  string // always ".jpg"
	Width     int64
	Height    int64
}

// TranscodeImage re-encodes a still image at the preset-selected quality
// and derives a preset-independent thumbnail. The libvips path produces
// WebP; when libvips is unavailable a pure-Go path re-encodes to JPEG.
func (e *Engine) TranscodeImage(data []byte, preset mediatypes.Preset) (*ImageResult, error) {
	start := time.Now()
	defer func() {
		metrics.TranscodeDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	}()

	if IsVipsAvailable() {
		return transcodeImageVips(data, preset)
	}
	logging.Debug("libvips unavailable, using pure-Go image path")
	return transcodeImageFallback(data, preset)
}

func transcodeImageVips(data []byte, preset mediatypes.Preset) (*ImageResult, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, imageError("decode", err)
	}
	defer ref.Close()

	// Bake the EXIF orientation in before stripping metadata on export.
	if err := ref.AutoRotate(); err != nil {
		return nil, imageError("auto-rotate", err)
	}

	result := &ImageResult{
		Ext:      mediatypes.VaultImageExt,
		ThumbExt: mediatypes.ThumbnailExt,
		Width:    int64(ref.Width()),
		Height:   int64(ref.Height()),
	}

	compressed, _, err := ref.ExportWebp(&vips.WebpExportParams{
		Quality:       imageQuality(preset),
		StripMetadata: true,
	})
	if err != nil {
		return nil, imageError("encode", err)
	}
	result.Data = compressed

	// The export above consumed no pixels we still need, but Thumbnail
	// mutates the ref, so run it after the full-size export.
	if err := ref.ThumbnailWithSize(ThumbnailMaxDimension, ThumbnailMaxDimension, vips.InterestingNone, vips.SizeDown); err != nil {
		return nil, imageError("thumbnail", err)
	}
	thumb, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        thumbnailQuality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, imageError("thumbnail encode", err)
	}
	result.Thumbnail = thumb

	return result, nil
}

func transcodeImageFallback(data []byte, preset mediatypes.Preset) (*ImageResult, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, imageError("decode", err)
	}

	bounds := img.Bounds()
	result := &ImageResult{
		Ext:      ".jpg", // no pure-Go WebP encoder
		ThumbExt: mediatypes.ThumbnailExt,
		Width:    int64(bounds.Dx()),
		Height:   int64(bounds.Dy()),
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: imageQuality(preset)}); err != nil {
		return nil, imageError("encode", err)
	}
	result.Data = buf.Bytes()

	thumb, err := encodeThumbnail(img)
	if err != nil {
		return nil, err
	}
	result.Thumbnail = thumb

	return result, nil
}

// encodeThumbnail fits an image within the thumbnail bounds without
// upscaling and encodes it at the fixed thumbnail quality.
func encodeThumbnail(img image.Image) ([]byte, error) {
	thumb := imaging.Fit(img, ThumbnailMaxDimension, ThumbnailMaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, imageError("thumbnail encode", err)
	}
	return buf.Bytes(), nil
}
