package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateWorkCycle inserts a work cycle. One cycle per user and year;
// a second insert for the same year returns ErrDuplicate.
func (s *Store) CreateWorkCycle(ctx context.Context, c *WorkCycle) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO work_cycles (
			user_id, year, hours_per_week, quota, basis,
			rtt_days, annual_half_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		c.UserID, c.Year, c.HoursPerWeek, c.Quota, c.Basis,
		c.RTTDays, c.AnnualHalfDays, now, now,
	).Scan(&c.ID)
	if err != nil {
		return mapWriteErr("failed to create work cycle", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// UpdateWorkCycle saves an existing cycle's parameters and derived
// entitlements.
func (s *Store) UpdateWorkCycle(ctx context.Context, c *WorkCycle) error {
	now := time.Now().UTC()
	err := s.execOne(ctx, "failed to update work cycle", `
		UPDATE work_cycles SET
			year = ?, hours_per_week = ?, quota = ?, basis = ?,
			rtt_days = ?, annual_half_days = ?, updated_at = ?
		WHERE id = ?`,
		c.Year, c.HoursPerWeek, c.Quota, c.Basis,
		c.RTTDays, c.AnnualHalfDays, now, c.ID)
	if err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

// DeleteWorkCycle removes a cycle.
func (s *Store) DeleteWorkCycle(ctx context.Context, id int64) error {
	return s.execOne(ctx, "failed to delete work cycle", `DELETE FROM work_cycles WHERE id = ?`, id)
}

const workCycleColumns = `id, user_id, year, hours_per_week, quota, basis,
	rtt_days, annual_half_days, created_at, updated_at`

func scanWorkCycle(sc interface{ Scan(...interface{}) error }) (*WorkCycle, error) {
	var c WorkCycle
	err := sc.Scan(&c.ID, &c.UserID, &c.Year, &c.HoursPerWeek, &c.Quota, &c.Basis,
		&c.RTTDays, &c.AnnualHalfDays, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan work cycle: %w", err)
	}
	return &c, nil
}

// GetWorkCycle returns one cycle by ID.
func (s *Store) GetWorkCycle(ctx context.Context, id int64) (*WorkCycle, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+workCycleColumns+` FROM work_cycles WHERE id = ?`), id)
	return scanWorkCycle(row)
}

// WorkCycleForYear returns a user's cycle for one civil year.
func (s *Store) WorkCycleForYear(ctx context.Context, userID int64, year int) (*WorkCycle, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+workCycleColumns+` FROM work_cycles
		WHERE user_id = ? AND year = ?`), userID, year)
	return scanWorkCycle(row)
}

// ListWorkCycles returns a user's cycles, most recent year first.
func (s *Store) ListWorkCycles(ctx context.Context, userID int64) ([]*WorkCycle, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+workCycleColumns+` FROM work_cycles
		WHERE user_id = ? ORDER BY year DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*WorkCycle
	for rows.Next() {
		c, err := scanWorkCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// YearBasis resolves the counting basis for a user and year: the work
// cycle wins, then a year-settings override, then the five-day default.
func (s *Store) YearBasis(ctx context.Context, userID int64, year int) (DayBasis, error) {
	cycle, err := s.WorkCycleForYear(ctx, userID, year)
	if err == nil {
		return cycle.Basis, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	var basis DayBasis
	err = s.db.QueryRowContext(ctx, s.q(`
		SELECT basis FROM year_settings WHERE user_id = ? AND year = ?`),
		userID, year).Scan(&basis)
	if errors.Is(err, sql.ErrNoRows) {
		return BasisFiveDay, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get year settings: %w", err)
	}
	return basis, nil
}

// SetYearBasis stores the counting-basis override for a user and year.
func (s *Store) SetYearBasis(ctx context.Context, userID int64, year int, basis DayBasis) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO year_settings (user_id, year, basis)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, year) DO UPDATE SET basis = excluded.basis`),
		userID, year, basis)
	if err != nil {
		return fmt.Errorf("failed to set year basis: %w", err)
	}
	return nil
}

// CreateLeavePeriod inserts a leave period, filling in the ID.
func (s *Store) CreateLeavePeriod(ctx context.Context, p *LeavePeriod) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO leave_periods (
			user_id, start_date, start_half, end_date, end_half,
			kind, year, half_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		p.UserID, fmtDate(p.Start), p.StartHalf, fmtDate(p.End), p.EndHalf,
		p.Kind, p.Year, p.HalfDays, now, now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create leave period: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// UpdateLeavePeriod saves an existing period.
func (s *Store) UpdateLeavePeriod(ctx context.Context, p *LeavePeriod) error {
	now := time.Now().UTC()
	err := s.execOne(ctx, "failed to update leave period", `
		UPDATE leave_periods SET
			start_date = ?, start_half = ?, end_date = ?, end_half = ?,
			kind = ?, year = ?, half_days = ?, updated_at = ?
		WHERE id = ?`,
		fmtDate(p.Start), p.StartHalf, fmtDate(p.End), p.EndHalf,
		p.Kind, p.Year, p.HalfDays, now, p.ID)
	if err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

// DeleteLeavePeriod removes a period.
func (s *Store) DeleteLeavePeriod(ctx context.Context, id int64) error {
	return s.execOne(ctx, "failed to delete leave period", `DELETE FROM leave_periods WHERE id = ?`, id)
}

const leavePeriodColumns = `id, user_id, start_date, start_half, end_date, end_half,
	kind, year, half_days, created_at, updated_at`

func scanLeavePeriod(sc interface{ Scan(...interface{}) error }) (*LeavePeriod, error) {
	var p LeavePeriod
	var start, end string
	err := sc.Scan(&p.ID, &p.UserID, &start, &p.StartHalf, &end, &p.EndHalf,
		&p.Kind, &p.Year, &p.HalfDays, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan leave period: %w", err)
	}
	if p.Start, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("failed to parse leave start: %w", err)
	}
	if p.End, err = parseDate(end); err != nil {
		return nil, fmt.Errorf("failed to parse leave end: %w", err)
	}
	return &p, nil
}

// GetLeavePeriod returns one period by ID.
func (s *Store) GetLeavePeriod(ctx context.Context, id int64) (*LeavePeriod, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+leavePeriodColumns+` FROM leave_periods WHERE id = ?`), id)
	return scanLeavePeriod(row)
}

// ListLeavePeriods returns a user's periods for one year, optionally
// restricted to a kind, ordered by start date.
func (s *Store) ListLeavePeriods(ctx context.Context, userID int64, year int, kind LeaveKind) ([]*LeavePeriod, error) {
	query := `SELECT ` + leavePeriodColumns + ` FROM leave_periods
		WHERE user_id = ? AND year = ?`
	args := []interface{}{userID, year}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY start_date, id`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave periods: %w", err)
	}
	defer rows.Close()

	var periods []*LeavePeriod
	for rows.Next() {
		p, err := scanLeavePeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// SaveSplitCalculation upserts the split-bonus result for a user and year.
func (s *Store) SaveSplitCalculation(ctx context.Context, c *SplitCalculation) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO split_calculations (user_id, year, days_outside, bonus_days, computed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, year) DO UPDATE SET
			days_outside = excluded.days_outside,
			bonus_days = excluded.bonus_days,
			computed_at = excluded.computed_at
		RETURNING id`),
		c.UserID, c.Year, c.DaysOutside, c.BonusDays, now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to save split calculation: %w", err)
	}
	c.ComputedAt = now
	return nil
}

// SplitCalculationForYear returns the stored split-bonus result.
func (s *Store) SplitCalculationForYear(ctx context.Context, userID int64, year int) (*SplitCalculation, error) {
	var c SplitCalculation
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, user_id, year, days_outside, bonus_days, computed_at
		FROM split_calculations WHERE user_id = ? AND year = ?`),
		userID, year).
		Scan(&c.ID, &c.UserID, &c.Year, &c.DaysOutside, &c.BonusDays, &c.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split calculation: %w", err)
	}
	return &c, nil
}
