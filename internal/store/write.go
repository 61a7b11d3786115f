package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/socgen/internal/ir"
)

// WriteBuild records a build and its regions in one transaction and returns
// the assigned seq. Writing the same build ID again is a no-op that returns
// the seq it was first recorded under.
//
// seq is a logical clock: MAX(seq)+1 read inside the transaction.
func (s *Store) WriteBuild(ctx context.Context, rec ir.BuildRecord, b *ir.Bundle) (int64, error) {
	if rec.ID == "" {
		return 0, fmt.Errorf("write build: empty id")
	}
	bundleJSON, err := marshalBundle(b)
	if err != nil {
		return 0, fmt.Errorf("write build: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write build: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM builds WHERE id = ?`, rec.ID).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("write build: lookup: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM builds`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write build: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, soc, variant, config_hash, bundle_hash, bundle, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		seq,
		rec.SoC,
		string(rec.Variant),
		rec.ConfigHash,
		rec.BundleHash,
		bundleJSON,
		rec.EngineVersion,
		rec.IRVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write build: %w", err)
	}

	for _, r := range b.Regions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO regions (build_id, name, base, size, cacheable)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, r.Name, int64(r.Base), int64(r.Size), r.Cacheable)
		if err != nil {
			return 0, fmt.Errorf("write build: region %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write build: commit: %w", err)
	}
	return seq, nil
}

// marshalBundle serializes the full bundle, id and hash included, as JSON
// TEXT.
func marshalBundle(b *ir.Bundle) (string, error) {
	if b == nil {
		return "", fmt.Errorf("marshal bundle: nil bundle")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	return string(data), nil
}

func unmarshalBundle(data string) (*ir.Bundle, error) {
	var b ir.Bundle
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return &b, nil
}
