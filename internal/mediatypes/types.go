package mediatypes

// MediaType represents the classification of an import candidate.
type MediaType string

const (
	// MediaTypeImage represents a still image file.
	MediaTypeImage MediaType = "image"
	// MediaTypeVideo represents a video file.
	MediaTypeVideo MediaType = "video"
	// MediaTypeIgnored represents a file the pipeline skips without error.
	MediaTypeIgnored MediaType = "ignored"
)

const (
	// VaultImageExt is the extension of compressed vault images.
	VaultImageExt = ".webp"
	// VaultVideoExt is the extension of compressed vault videos.
	VaultVideoExt = ".mp4"
	// ThumbnailExt is the extension of generated thumbnails.
	ThumbnailExt = ".jpg"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
}

// Classify returns the MediaType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns MediaTypeIgnored if the extension is not recognized.
func Classify(ext string) MediaType {
	if ImageExtensions[ext] {
		return MediaTypeImage
	}
	if VideoExtensions[ext] {
		return MediaTypeVideo
	}
	return MediaTypeIgnored
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
