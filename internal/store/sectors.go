package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateSector inserts a sector and fills in its ID and timestamps.
// Returns ErrDuplicate when the name is taken.
func (s *Store) CreateSector(ctx context.Context, sec *Sector) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO sectors (name, color, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		sec.Name, sec.Color, sec.Position, now, now,
	).Scan(&sec.ID)
	if err != nil {
		return mapWriteErr("failed to create sector", err)
	}
	sec.CreatedAt = now
	sec.UpdatedAt = now
	return nil
}

// GetSector returns one sector by ID.
func (s *Store) GetSector(ctx context.Context, id int64) (*Sector, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, name, color, position, created_at, updated_at
		FROM sectors WHERE id = ?`), id)
	return scanSector(row)
}

// GetSectorByName returns one sector by its unique name.
func (s *Store) GetSectorByName(ctx context.Context, name string) (*Sector, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, name, color, position, created_at, updated_at
		FROM sectors WHERE name = ?`), name)
	return scanSector(row)
}

func scanSector(row *sql.Row) (*Sector, error) {
	var sec Sector
	err := row.Scan(&sec.ID, &sec.Name, &sec.Color, &sec.Position, &sec.CreatedAt, &sec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sector: %w", err)
	}
	return &sec, nil
}

// UpdateSector saves name, color and position of an existing sector.
func (s *Store) UpdateSector(ctx context.Context, sec *Sector) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE sectors SET name = ?, color = ?, position = ?, updated_at = ?
		WHERE id = ?`),
		sec.Name, sec.Color, sec.Position, now, sec.ID)
	if err != nil {
		return mapWriteErr("failed to update sector", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update sector: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	sec.UpdatedAt = now
	return nil
}

// DeleteSector removes a sector. User and event associations go with it
// through the cascading foreign keys.
func (s *Store) DeleteSector(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM sectors WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete sector: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete sector: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSectors returns all sectors ordered by (position, name), each with
// its member count.
func (s *Store) ListSectors(ctx context.Context) ([]*Sector, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT s.id, s.name, s.color, s.position, s.created_at, s.updated_at,
		       COUNT(us.user_id)
		FROM sectors s
		LEFT JOIN user_sectors us ON us.sector_id = s.id
		GROUP BY s.id, s.name, s.color, s.position, s.created_at, s.updated_at
		ORDER BY s.position, s.name`))
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	var sectors []*Sector
	for rows.Next() {
		var sec Sector
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.Color, &sec.Position,
			&sec.CreatedAt, &sec.UpdatedAt, &sec.UserCount); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, &sec)
	}
	return sectors, rows.Err()
}

// CountSectors returns the total number of sectors.
func (s *Store) CountSectors(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sectors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sectors: %w", err)
	}
	return n, nil
}

// SectorsForUser returns the sectors a user belongs to, ordered like
// ListSectors.
func (s *Store) SectorsForUser(ctx context.Context, userID int64) ([]*Sector, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT s.id, s.name, s.color, s.position, s.created_at, s.updated_at
		FROM sectors s
		JOIN user_sectors us ON us.sector_id = s.id
		WHERE us.user_id = ?
		ORDER BY s.position, s.name`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sectors: %w", err)
	}
	defer rows.Close()

	var sectors []*Sector
	for rows.Next() {
		var sec Sector
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.Color, &sec.Position,
			&sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, &sec)
	}
	return sectors, rows.Err()
}

// SetUserSectors replaces a user's sector memberships.
func (s *Store) SetUserSectors(ctx context.Context, userID int64, sectorIDs []int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM user_sectors WHERE user_id = ?`), userID); err != nil {
			return fmt.Errorf("failed to clear user sectors: %w", err)
		}
		for _, sid := range sectorIDs {
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO user_sectors (user_id, sector_id) VALUES (?, ?)`), userID, sid); err != nil {
				return fmt.Errorf("failed to assign sector %d: %w", sid, err)
			}
		}
		return nil
	})
}
