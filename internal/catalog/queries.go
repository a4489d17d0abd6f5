package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"photovault/internal/logging"
	"photovault/internal/mediatypes"
)

const (
	// recentLimit caps a query without search text.
	recentLimit = 200
	// searchLimit caps a term search.
	searchLimit = 500
)

// UpsertAsset replaces or inserts an asset row keyed by id. Replacement is
// whole-row: every column is overwritten with the new values, not merged.
func (c *Catalog) UpsertAsset(ctx context.Context, a *Asset) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_asset", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO asset (
		id, orig_path, vault_path, media_type, created_ts,
		width, height, duration_ms, exif_lat, exif_lon, exif_place,
		bytes_orig, bytes_vault, checksum_orig, checksum_vault,
		quality_preset, state
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		orig_path = excluded.orig_path,
		vault_path = excluded.vault_path,
		media_type = excluded.media_type,
		created_ts = excluded.created_ts,
		width = excluded.width,
		height = excluded.height,
		duration_ms = excluded.duration_ms,
		exif_lat = excluded.exif_lat,
		exif_lon = excluded.exif_lon,
		exif_place = excluded.exif_place,
		bytes_orig = excluded.bytes_orig,
		bytes_vault = excluded.bytes_vault,
		checksum_orig = excluded.checksum_orig,
		checksum_vault = excluded.checksum_vault,
		quality_preset = excluded.quality_preset,
		state = excluded.state
	`

	_, err = c.db.ExecContext(ctx, query,
		a.ID, a.OriginalPath, a.VaultPath, string(a.MediaType), a.CreatedAt,
		a.Width, a.Height, a.DurationMs, a.Latitude, a.Longitude, a.Place,
		a.BytesOriginal, a.BytesVault,
		nullableString(a.ChecksumOrig), nullableString(a.ChecksumVault),
		string(a.QualityPreset), a.State,
	)
	if err != nil {
		err = fmt.Errorf("upsert asset %s: %w", a.ID, err)
	}
	return err
}

// AppendIndexTerms appends search terms for an asset. Terms are lowered
// before insert; duplicates are not removed, repeated imports strictly
// grow the term set for an id.
func (c *Catalog) AppendIndexTerms(ctx context.Context, id string, terms []string) error {
	if len(terms) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("append_index_terms", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString("INSERT INTO index_terms (asset_id, term) VALUES ")
	args := make([]interface{}, 0, len(terms)*2)
	for i, term := range terms {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		args = append(args, id, strings.ToLower(term))
	}

	_, err = c.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		err = fmt.Errorf("append index terms for %s: %w", id, err)
	}
	return err
}

// GetAsset retrieves a single asset row by content id.
func (c *Catalog) GetAsset(ctx context.Context, id string) (*Asset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := c.db.QueryRowContext(ctx, selectColumns+" FROM asset WHERE id = ?", id)
	a, err := scanAsset(row)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Query returns catalog rows. Without search text it returns the most
// recently created assets, newest first, capped at 200. With text the
// lower-cased whitespace-split terms are OR-ed under a case-insensitive
// substring match against the term index (a search term of "19" matches
// the index term "2019"), grouped to one row per asset, newest first,
// capped at 500.
func (c *Catalog) Query(ctx context.Context, params QueryParams) ([]Asset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("query", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	terms := strings.Fields(strings.ToLower(params.Text))

	var rows *sql.Rows
	if len(terms) == 0 {
		rows, err = c.db.QueryContext(ctx,
			selectColumns+` FROM asset ORDER BY created_ts DESC LIMIT ?`, recentLimit)
	} else {
		conds := make([]string, len(terms))
		args := make([]interface{}, 0, len(terms)+1)
		for i, term := range terms {
			conds[i] = `t.term LIKE ? ESCAPE '\'`
			args = append(args, "%"+escapeLike(term)+"%")
		}
		args = append(args, searchLimit)

		query := selectColumnsAliased + `
			FROM asset a
			JOIN index_terms t ON t.asset_id = a.id
			WHERE ` + strings.Join(conds, " OR ") + `
			GROUP BY a.id
			ORDER BY a.created_ts DESC
			LIMIT ?`
		rows, err = c.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		err = fmt.Errorf("catalog query failed: %w", err)
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close result rows: %v", closeErr)
		}
	}()

	assets := make([]Asset, 0)
	for rows.Next() {
		a, scanErr := scanAsset(rows)
		if scanErr != nil {
			err = fmt.Errorf("scan failed: %w", scanErr)
			return nil, err
		}
		assets = append(assets, *a)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return assets, nil
}

// Stats returns catalog-wide totals, including space saved by transcoding.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s Stats
	err = c.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN media_type = 'image' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN media_type = 'video' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(bytes_orig), 0),
			COALESCE(SUM(bytes_vault), 0),
			COALESCE(SUM(MAX(bytes_orig - bytes_vault, 0)), 0)
		FROM asset
	`).Scan(&s.Assets, &s.Images, &s.Videos, &s.BytesOriginal, &s.BytesVault, &s.BytesSaved)
	if err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}
	return &s, nil
}

const selectColumns = `
	SELECT id, orig_path, vault_path, media_type, created_ts,
		width, height, duration_ms, exif_lat, exif_lon, exif_place,
		bytes_orig, bytes_vault, checksum_orig, checksum_vault,
		quality_preset, state`

const selectColumnsAliased = `
	SELECT a.id, a.orig_path, a.vault_path, a.media_type, a.created_ts,
		a.width, a.height, a.duration_ms, a.exif_lat, a.exif_lon, a.exif_place,
		a.bytes_orig, a.bytes_vault, a.checksum_orig, a.checksum_vault,
		a.quality_preset, a.state`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(row rowScanner) (*Asset, error) {
	var a Asset
	var mediaType, preset string
	var width, height, durationMs sql.NullInt64
	var lat, lon sql.NullFloat64
	var place, checksumOrig, checksumVault sql.NullString

	if err := row.Scan(
		&a.ID, &a.OriginalPath, &a.VaultPath, &mediaType, &a.CreatedAt,
		&width, &height, &durationMs, &lat, &lon, &place,
		&a.BytesOriginal, &a.BytesVault, &checksumOrig, &checksumVault,
		&preset, &a.State,
	); err != nil {
		return nil, err
	}

	a.MediaType = mediatypes.MediaType(mediaType)
	a.QualityPreset = mediatypes.Preset(preset)
	if width.Valid {
		a.Width = &width.Int64
	}
	if height.Valid {
		a.Height = &height.Int64
	}
	if durationMs.Valid {
		a.DurationMs = &durationMs.Int64
	}
	if lat.Valid {
		a.Latitude = &lat.Float64
	}
	if lon.Valid {
		a.Longitude = &lon.Float64
	}
	if place.Valid {
		a.Place = &place.String
	}
	if checksumOrig.Valid {
		a.ChecksumOrig = checksumOrig.String
	}
	if checksumVault.Valid {
		a.ChecksumVault = checksumVault.String
	}
	return &a, nil
}

// escapeLike escapes LIKE wildcards in a user-supplied search term so the
// term matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
