package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const userColumns = `
	u.id, u.email, u.password_hash, u.first_name, u.last_name,
	u.active, u.superuser, u.email_verified,
	u.verify_token, u.verify_sent_at, u.reset_token, u.reset_sent_at,
	u.notify_welcome, u.notify_password_change, u.notify_new_login, u.notify_security_alerts,
	u.role_id, u.joined_at,
	r.id, r.name, r.level`

const userFrom = `
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id`

// CreateUser inserts a user and fills in its ID. Returns ErrDuplicate when
// the email is already registered. Emails are stored lowercased.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO users (
			email, password_hash, first_name, last_name,
			active, superuser, email_verified,
			verify_token, verify_sent_at, reset_token, reset_sent_at,
			notify_welcome, notify_password_change, notify_new_login, notify_security_alerts,
			role_id, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Active, u.Superuser, u.EmailVerified,
		u.VerifyToken, nullTime(u.VerifySentAt), u.ResetToken, nullTime(u.ResetSentAt),
		u.NotifyWelcome, u.NotifyPasswordChange, u.NotifyNewLogin, u.NotifySecurityAlerts,
		nullID(u.RoleID), u.JoinedAt,
	).Scan(&u.ID)
	if err != nil {
		return mapWriteErr("failed to create user", err)
	}
	return nil
}

func (s *Store) userBy(ctx context.Context, where string, arg interface{}) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+userFrom+` WHERE `+where), arg)

	var u User
	var roleID, joinedRoleID sql.NullInt64
	var roleName sql.NullString
	var roleLevel sql.NullInt64
	var verifySentAt, resetSentAt sql.NullTime

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Active, &u.Superuser, &u.EmailVerified,
		&u.VerifyToken, &verifySentAt, &u.ResetToken, &resetSentAt,
		&u.NotifyWelcome, &u.NotifyPasswordChange, &u.NotifyNewLogin, &u.NotifySecurityAlerts,
		&roleID, &u.JoinedAt,
		&joinedRoleID, &roleName, &roleLevel,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.VerifySentAt = timePtr(verifySentAt)
	u.ResetSentAt = timePtr(resetSentAt)
	u.RoleID = idPtr(roleID)
	if joinedRoleID.Valid {
		u.Role = &Role{ID: joinedRoleID.Int64, Name: roleName.String, Level: int(roleLevel.Int64)}
	}

	sectors, err := s.SectorsForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Sectors = sectors
	return &u, nil
}

// GetUser returns one user by ID, with role and sectors loaded.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.userBy(ctx, "u.id = ?", id)
}

// UserByEmail looks a user up by login email (case-insensitive).
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.userBy(ctx, "u.email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// UserByVerifyToken looks a user up by a pending email verification token.
func (s *Store) UserByVerifyToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.userBy(ctx, "u.verify_token = ?", token)
}

// UserByResetToken looks a user up by a pending password reset token.
func (s *Store) UserByResetToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.userBy(ctx, "u.reset_token = ?", token)
}

func (s *Store) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return mapWriteErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile saves a user's name fields.
func (s *Store) UpdateProfile(ctx context.Context, id int64, firstName, lastName string) error {
	return s.execOne(ctx, "failed to update profile",
		`UPDATE users SET first_name = ?, last_name = ? WHERE id = ?`,
		firstName, lastName, id)
}

// SetPassword replaces the stored password hash.
func (s *Store) SetPassword(ctx context.Context, id int64, hash string) error {
	return s.execOne(ctx, "failed to set password",
		`UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
}

// SetVerifyToken stores a fresh email verification token.
func (s *Store) SetVerifyToken(ctx context.Context, id int64, token string, sentAt time.Time) error {
	return s.execOne(ctx, "failed to set verification token",
		`UPDATE users SET verify_token = ?, verify_sent_at = ? WHERE id = ?`,
		token, sentAt, id)
}

// MarkEmailVerified confirms the address and clears the token.
func (s *Store) MarkEmailVerified(ctx context.Context, id int64) error {
	return s.execOne(ctx, "failed to mark email verified",
		`UPDATE users SET email_verified = TRUE, verify_token = '', verify_sent_at = NULL WHERE id = ?`,
		id)
}

// SetResetToken stores a fresh password reset token.
func (s *Store) SetResetToken(ctx context.Context, id int64, token string, sentAt time.Time) error {
	return s.execOne(ctx, "failed to set reset token",
		`UPDATE users SET reset_token = ?, reset_sent_at = ? WHERE id = ?`,
		token, sentAt, id)
}

// ClearResetToken invalidates any pending password reset.
func (s *Store) ClearResetToken(ctx context.Context, id int64) error {
	return s.execOne(ctx, "failed to clear reset token",
		`UPDATE users SET reset_token = '', reset_sent_at = NULL WHERE id = ?`, id)
}

// NotificationPrefs groups the per-user email toggles.
type NotificationPrefs struct {
	Welcome        bool
	PasswordChange bool
	NewLogin       bool
	SecurityAlerts bool
}

// SetNotificationPrefs saves the email notification toggles.
func (s *Store) SetNotificationPrefs(ctx context.Context, id int64, p NotificationPrefs) error {
	return s.execOne(ctx, "failed to set notification preferences",
		`UPDATE users SET notify_welcome = ?, notify_password_change = ?,
			notify_new_login = ?, notify_security_alerts = ? WHERE id = ?`,
		p.Welcome, p.PasswordChange, p.NewLogin, p.SecurityAlerts, id)
}

// SetActive toggles whether a user may sign in.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	return s.execOne(ctx, "failed to set active flag",
		`UPDATE users SET active = ? WHERE id = ?`, active, id)
}

// SetSuperuser toggles the administrative flag.
func (s *Store) SetSuperuser(ctx context.Context, id int64, superuser bool) error {
	return s.execOne(ctx, "failed to set superuser flag",
		`UPDATE users SET superuser = ? WHERE id = ?`, superuser, id)
}

// DeleteUser removes an account. Sector memberships and leave records
// cascade; created events go with the account.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.execOne(ctx, "failed to delete user", `DELETE FROM users WHERE id = ?`, id)
}

// ListUsers returns a page of users ordered by last name, first name,
// email, with roles joined and sectors prefetched in one extra query.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+userColumns+userFrom+`
		ORDER BY u.last_name, u.first_name, u.email
		LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	byID := make(map[int64]*User)
	for rows.Next() {
		var u User
		var roleID, joinedRoleID sql.NullInt64
		var roleName sql.NullString
		var roleLevel sql.NullInt64
		var verifySentAt, resetSentAt sql.NullTime

		if err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Active, &u.Superuser, &u.EmailVerified,
			&u.VerifyToken, &verifySentAt, &u.ResetToken, &resetSentAt,
			&u.NotifyWelcome, &u.NotifyPasswordChange, &u.NotifyNewLogin, &u.NotifySecurityAlerts,
			&roleID, &u.JoinedAt,
			&joinedRoleID, &roleName, &roleLevel,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.VerifySentAt = timePtr(verifySentAt)
		u.ResetSentAt = timePtr(resetSentAt)
		u.RoleID = idPtr(roleID)
		if joinedRoleID.Valid {
			u.Role = &Role{ID: joinedRoleID.Int64, Name: roleName.String, Level: int(roleLevel.Int64)}
		}
		users = append(users, &u)
		byID[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return users, nil
	}

	// One membership query for the whole page instead of one per user.
	ids := make([]string, len(users))
	args := make([]interface{}, len(users))
	for i, u := range users {
		ids[i] = "?"
		args[i] = u.ID
	}
	srows, err := s.db.QueryContext(ctx, s.q(`
		SELECT us.user_id, s.id, s.name, s.color, s.position, s.created_at, s.updated_at
		FROM user_sectors us
		JOIN sectors s ON s.id = us.sector_id
		WHERE us.user_id IN (`+strings.Join(ids, ", ")+`)
		ORDER BY s.position, s.name`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load user sectors: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var userID int64
		var sec Sector
		if err := srows.Scan(&userID, &sec.ID, &sec.Name, &sec.Color, &sec.Position,
			&sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user sector: %w", err)
		}
		if u, ok := byID[userID]; ok {
			u.Sectors = append(u.Sectors, &sec)
		}
	}
	return users, srows.Err()
}

// CountUsers returns the total number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
