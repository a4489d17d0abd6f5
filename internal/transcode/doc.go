// Package transcode converts original images and videos into the vault's
// space-efficient representations and derives thumbnails.
//
// Images are re-encoded to WebP through libvips at a preset-selected
// quality, with a pure-Go fallback path when libvips is unavailable.
// Videos are re-encoded to H.264/AAC in an MP4 container through the
// ffmpeg binary. Codec failures propagate to the caller as *Error values;
// the import pipeline decides whether to skip and continue.
package transcode
