package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateRole inserts a role. Both name and level carry unique constraints,
// so either collision surfaces as ErrDuplicate.
func (s *Store) CreateRole(ctx context.Context, r *Role) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO roles (name, level, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		r.Name, r.Level, now, now,
	).Scan(&r.ID)
	if err != nil {
		return mapWriteErr("failed to create role", err)
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetRole returns one role by ID.
func (s *Store) GetRole(ctx context.Context, id int64) (*Role, error) {
	var r Role
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, name, level, created_at, updated_at
		FROM roles WHERE id = ?`), id).
		Scan(&r.ID, &r.Name, &r.Level, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &r, nil
}

// RoleByLevel returns the role holding a hierarchy level, skipping
// excludeID when non-zero. Backs the level-availability probe on the role
// form.
func (s *Store) RoleByLevel(ctx context.Context, level int, excludeID int64) (*Role, error) {
	var r Role
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, name, level, created_at, updated_at
		FROM roles WHERE level = ? AND id <> ?`), level, excludeID).
		Scan(&r.ID, &r.Name, &r.Level, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role by level: %w", err)
	}
	return &r, nil
}

// UpdateRole saves name and level of an existing role.
func (s *Store) UpdateRole(ctx context.Context, r *Role) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE roles SET name = ?, level = ?, updated_at = ?
		WHERE id = ?`),
		r.Name, r.Level, now, r.ID)
	if err != nil {
		return mapWriteErr("failed to update role", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	r.UpdatedAt = now
	return nil
}

// DeleteRole removes a role. Users holding it fall back to no role through
// the SET NULL foreign key.
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM roles WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRoles returns all roles ordered by level, each with its holder count.
func (s *Store) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT r.id, r.name, r.level, r.created_at, r.updated_at,
		       COUNT(u.id)
		FROM roles r
		LEFT JOIN users u ON u.role_id = r.id
		GROUP BY r.id, r.name, r.level, r.created_at, r.updated_at
		ORDER BY r.level`))
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Level, &r.CreatedAt, &r.UpdatedAt, &r.UserCount); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &r)
	}
	return roles, rows.Err()
}

// SetUserRole assigns or clears (nil) a user's role.
func (s *Store) SetUserRole(ctx context.Context, userID int64, roleID *int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET role_id = ? WHERE id = ?`),
		nullID(roleID), userID)
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
