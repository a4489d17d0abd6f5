package exif

import (
	"bytes"
	"strings"
	"time"

	"photovault/internal/logging"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// exifTimeLayout is the timestamp format used by EXIF date tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// Metadata holds whatever embedded metadata could be recovered from a blob.
// All fields are optional; the zero value means nothing was found.
type Metadata struct {
	CapturedAt  *time.Time
	Latitude    *float64
	Longitude   *float64
	Place       string // reserved for reverse geocoding, currently always empty
	CameraMake  string
	CameraModel string
}

// Extract parses EXIF tags (TIFF/IFD0/GPS blocks) from a blob. The capture
// timestamp is taken from the first available of DateTimeOriginal,
// DateTimeDigitized, and DateTime. Extract never fails: on any parse error
// it returns an empty Metadata.
func Extract(data []byte) Metadata {
	var meta Metadata

	// goexif has been known to panic on malformed IFD structures;
	// a corrupt file must not take down the import batch.
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("EXIF parser panic recovered: %v", r)
		}
	}()

	x, err := goexif.Decode(bytes.NewReader(data))
	if err != nil {
		logging.Debug("No usable EXIF data: %v", err)
		return meta
	}

	if ts, ok := captureTime(x); ok {
		meta.CapturedAt = &ts
	}

	if lat, lon, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lon
	}

	meta.CameraMake = stringTag(x, goexif.Make)
	meta.CameraModel = stringTag(x, goexif.Model)

	return meta
}

// captureTime returns the embedded capture timestamp, preferring the
// original-capture tag over create and modify times.
func captureTime(x *goexif.Exif) (time.Time, bool) {
	for _, field := range []goexif.FieldName{
		goexif.DateTimeOriginal,
		goexif.DateTimeDigitized,
		goexif.DateTime,
	} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		ts, err := time.ParseInLocation(exifTimeLayout, strings.TrimSpace(raw), time.Local)
		if err != nil {
			logging.Debug("Unparseable EXIF timestamp %q in %s: %v", raw, field, err)
			continue
		}
		return ts, true
	}
	return time.Time{}, false
}

func stringTag(x *goexif.Exif, field goexif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	val, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(val)
}
