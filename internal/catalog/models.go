package catalog

import "photovault/internal/mediatypes"

// StateVerified marks an asset whose vault artifact and catalog row are
// both durably written.
const StateVerified = "verified"

// Asset is one catalog row for a single piece of media content, keyed by
// content id. Two imports of byte-identical content collapse to the same
// row; the row always reflects the latest processed version.
type Asset struct {
	ID            string               `json:"id"`
	OriginalPath  string               `json:"originalPath"`
	VaultPath     string               `json:"vaultPath"`
	MediaType     mediatypes.MediaType `json:"mediaType"`
	CreatedAt     int64                `json:"createdAt"` // epoch milliseconds
	Width         *int64               `json:"width,omitempty"`
	Height        *int64               `json:"height,omitempty"`
	DurationMs    *int64               `json:"durationMs,omitempty"`
	Latitude      *float64             `json:"latitude,omitempty"`
	Longitude     *float64             `json:"longitude,omitempty"`
	Place         *string              `json:"place,omitempty"`
	BytesOriginal int64                `json:"bytesOriginal"`
	BytesVault    int64                `json:"bytesVault"`
	ChecksumOrig  string               `json:"checksumOriginal,omitempty"`
	ChecksumVault string               `json:"checksumVault,omitempty"`
	QualityPreset mediatypes.Preset    `json:"qualityPreset"`
	State         string               `json:"state"`
}

// BytesSaved returns the space saved by transcoding, floored at zero so a
// non-beneficial conversion never reports negative savings.
func (a *Asset) BytesSaved() int64 {
	if saved := a.BytesOriginal - a.BytesVault; saved > 0 {
		return saved
	}
	return 0
}

// QueryParams selects catalog rows. With empty Text the most recently
// created assets are returned; otherwise Text is lower-cased, split on
// whitespace, and rows with at least one index term containing any of the
// resulting terms match (OR semantics).
type QueryParams struct {
	Text string `json:"text,omitempty"`
}

// Stats summarizes the catalog for the stats endpoint.
type Stats struct {
	Assets        int64 `json:"assets"`
	Images        int64 `json:"images"`
	Videos        int64 `json:"videos"`
	BytesOriginal int64 `json:"bytesOriginal"`
	BytesVault    int64 `json:"bytesVault"`
	BytesSaved    int64 `json:"bytesSaved"`
}
