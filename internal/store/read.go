package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/socgen/internal/ir"
)

// ErrNotFound is returned when a build ID is not in the ledger.
var ErrNotFound = errors.New("build not found")

const buildColumns = `id, seq, soc, variant, config_hash, bundle_hash, engine_version, ir_version`

// ReadBuild returns a recorded build and its bundle.
func (s *Store) ReadBuild(ctx context.Context, id string) (ir.BuildRecord, *ir.Bundle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`, bundle
		FROM builds
		WHERE id = ?
	`, id)

	var rec ir.BuildRecord
	var variant, bundleJSON string
	err := row.Scan(&rec.ID, &rec.Seq, &rec.SoC, &variant, &rec.ConfigHash,
		&rec.BundleHash, &rec.EngineVersion, &rec.IRVersion, &bundleJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.BuildRecord{}, nil, fmt.Errorf("read build %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.BuildRecord{}, nil, fmt.Errorf("read build %s: %w", id, err)
	}
	rec.Variant = ir.Variant(variant)

	b, err := unmarshalBundle(bundleJSON)
	if err != nil {
		return ir.BuildRecord{}, nil, fmt.Errorf("read build %s: %w", id, err)
	}
	return rec, b, nil
}

// ListBuilds returns recorded builds ordered by seq. An empty soc lists
// every SoC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListBuilds(ctx context.Context, soc string) ([]ir.BuildRecord, error) {
	query := `SELECT ` + buildColumns + ` FROM builds`
	var args []any
	if soc != "" {
		query += ` WHERE soc = ?`
		args = append(args, soc)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	records := []ir.BuildRecord{}
	for rows.Next() {
		var rec ir.BuildRecord
		var variant string
		if err := rows.Scan(&rec.ID, &rec.Seq, &rec.SoC, &variant, &rec.ConfigHash,
			&rec.BundleHash, &rec.EngineVersion, &rec.IRVersion); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.Variant = ir.Variant(variant)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return records, nil
}

// ReadRegions returns a build's address map ordered by base address.
//
// Returns an empty slice (not nil) if the build has no regions.
func (s *Store) ReadRegions(ctx context.Context, buildID string) ([]ir.Region, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, base, size, cacheable
		FROM regions
		WHERE build_id = ?
		ORDER BY base ASC, name COLLATE BINARY ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	regions := []ir.Region{}
	for rows.Next() {
		var r ir.Region
		var base, size int64
		if err := rows.Scan(&r.Name, &base, &size, &r.Cacheable); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		r.Base, r.Size = uint64(base), uint64(size)
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return regions, nil
}

// LatestBuild returns the most recent build of a SoC.
func (s *Store) LatestBuild(ctx context.Context, soc string) (ir.BuildRecord, error) {
	var rec ir.BuildRecord
	var variant string
	err := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE soc = ?
		ORDER BY seq DESC
		LIMIT 1
	`, soc).Scan(&rec.ID, &rec.Seq, &rec.SoC, &variant, &rec.ConfigHash,
		&rec.BundleHash, &rec.EngineVersion, &rec.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.BuildRecord{}, fmt.Errorf("latest build of %s: %w", soc, ErrNotFound)
	}
	if err != nil {
		return ir.BuildRecord{}, fmt.Errorf("latest build of %s: %w", soc, err)
	}
	rec.Variant = ir.Variant(variant)
	return rec, nil
}
