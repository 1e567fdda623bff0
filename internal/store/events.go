package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const eventColumns = `
	e.id, e.title, e.description, e.venue,
	e.starts_at, e.ends_at, e.timezone, e.publish_by,
	e.creator_id, u.email, u.first_name, u.last_name,
	e.deputy_requested, e.deputy_status, e.deputy_decided_at, e.deputy_decider_id, e.deputy_comment,
	e.director_requested, e.director_status, e.director_decided_at, e.director_decider_id, e.director_comment,
	e.created_at, e.updated_at,
	a.street, a.city, a.postal_code, a.country, a.extra`

const eventFrom = `
	FROM events e
	JOIN users u ON u.id = e.creator_id
	LEFT JOIN event_addresses a ON a.event_id = e.id`

func scanEvent(sc interface {
	Scan(dest ...interface{}) error
}) (*Event, error) {
	var e Event
	var endsAt, deputyDecided, directorDecided sql.NullTime
	var publishBy sql.NullString
	var deputyDecider, directorDecider sql.NullInt64
	var creatorEmail, creatorFirst, creatorLast string
	var street, city, postal, country, extra sql.NullString

	err := sc.Scan(
		&e.ID, &e.Title, &e.Description, &e.Venue,
		&e.StartsAt, &endsAt, &e.Timezone, &publishBy,
		&e.CreatorID, &creatorEmail, &creatorFirst, &creatorLast,
		&e.Deputy.Requested, &e.Deputy.Status, &deputyDecided, &deputyDecider, &e.Deputy.Comment,
		&e.Director.Requested, &e.Director.Status, &directorDecided, &directorDecider, &e.Director.Comment,
		&e.CreatedAt, &e.UpdatedAt,
		&street, &city, &postal, &country, &extra,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	e.EndsAt = timePtr(endsAt)
	pb, err := scanDate(publishBy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse publish date: %w", err)
	}
	e.PublishBy = pb
	e.Deputy.DecidedAt = timePtr(deputyDecided)
	e.Deputy.DeciderID = idPtr(deputyDecider)
	e.Director.DecidedAt = timePtr(directorDecided)
	e.Director.DeciderID = idPtr(directorDecider)
	e.Creator = &User{ID: e.CreatorID, Email: creatorEmail, FirstName: creatorFirst, LastName: creatorLast}
	if street.Valid {
		e.Address = &Address{
			Street:     street.String,
			City:       city.String,
			PostalCode: postal.String,
			Country:    country.String,
			Extra:      extra.String,
		}
	}
	return &e, nil
}

// CreateEvent inserts an event with its optional address and sector tags,
// filling in the ID.
func (s *Store) CreateEvent(ctx context.Context, e *Event, sectorIDs []int64) error {
	now := time.Now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.q(`
			INSERT INTO events (
				title, description, venue, starts_at, ends_at, timezone, publish_by,
				creator_id,
				deputy_requested, deputy_status, deputy_comment,
				director_requested, director_status, director_comment,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			e.Title, e.Description, e.Venue, e.StartsAt, nullTime(e.EndsAt), e.Timezone, nullDate(e.PublishBy),
			e.CreatorID,
			e.Deputy.Requested, e.Deputy.Status, e.Deputy.Comment,
			e.Director.Requested, e.Director.Status, e.Director.Comment,
			now, now,
		).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		if err := saveEventAddress(ctx, tx, s, e.ID, e.Address); err != nil {
			return err
		}
		return saveEventSectors(ctx, tx, s, e.ID, sectorIDs)
	})
	if err != nil {
		return err
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// UpdateEvent saves an event's editable fields, address and sector tags.
// Approval decisions are untouched; only the requested flags (and the
// pending reset handled by the caller) change here.
func (s *Store) UpdateEvent(ctx context.Context, e *Event, sectorIDs []int64) error {
	now := time.Now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE events SET
				title = ?, description = ?, venue = ?,
				starts_at = ?, ends_at = ?, timezone = ?, publish_by = ?,
				deputy_requested = ?, deputy_status = ?,
				director_requested = ?, director_status = ?,
				updated_at = ?
			WHERE id = ?`),
			e.Title, e.Description, e.Venue,
			e.StartsAt, nullTime(e.EndsAt), e.Timezone, nullDate(e.PublishBy),
			e.Deputy.Requested, e.Deputy.Status,
			e.Director.Requested, e.Director.Status,
			now, e.ID)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := saveEventAddress(ctx, tx, s, e.ID, e.Address); err != nil {
			return err
		}
		return saveEventSectors(ctx, tx, s, e.ID, sectorIDs)
	})
	if err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

func saveEventAddress(ctx context.Context, tx *sql.Tx, s *Store, eventID int64, addr *Address) error {
	if addr == nil {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM event_addresses WHERE event_id = ?`), eventID); err != nil {
			return fmt.Errorf("failed to clear event address: %w", err)
		}
		return nil
	}
	if addr.Country == "" {
		addr.Country = "France"
	}
	_, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO event_addresses (event_id, street, city, postal_code, country, extra)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO UPDATE SET
			street = excluded.street, city = excluded.city,
			postal_code = excluded.postal_code, country = excluded.country,
			extra = excluded.extra`),
		eventID, addr.Street, addr.City, addr.PostalCode, addr.Country, addr.Extra)
	if err != nil {
		return fmt.Errorf("failed to save event address: %w", err)
	}
	return nil
}

func saveEventSectors(ctx context.Context, tx *sql.Tx, s *Store, eventID int64, sectorIDs []int64) error {
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM event_sectors WHERE event_id = ?`), eventID); err != nil {
		return fmt.Errorf("failed to clear event sectors: %w", err)
	}
	for _, sid := range sectorIDs {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO event_sectors (event_id, sector_id) VALUES (?, ?)`), eventID, sid); err != nil {
			return fmt.Errorf("failed to tag sector %d: %w", sid, err)
		}
	}
	return nil
}

// DeleteEvent removes an event; address, sector tags and attachment rows
// cascade. Attachment files on disk are the caller's problem.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	return s.execOne(ctx, "failed to delete event", `DELETE FROM events WHERE id = ?`, id)
}

// GetEvent returns one event with address, creator and sectors loaded.
func (s *Store) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+eventColumns+eventFrom+` WHERE e.id = ?`), id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadEventSectors(ctx, []*Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// EventFilter narrows ListEvents and CountEvents.
type EventFilter struct {
	From      *time.Time
	To        *time.Time
	SectorID  int64
	CreatorID int64
	Limit     int
	Offset    int
}

func (f EventFilter) where() (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.From != nil {
		conds = append(conds, "e.starts_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		conds = append(conds, "e.starts_at < ?")
		args = append(args, *f.To)
	}
	if f.SectorID != 0 {
		conds = append(conds, "e.id IN (SELECT event_id FROM event_sectors WHERE sector_id = ?)")
		args = append(args, f.SectorID)
	}
	if f.CreatorID != 0 {
		conds = append(conds, "e.creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListEvents returns events matching the filter, ordered by start time,
// with sectors loaded.
func (s *Store) ListEvents(ctx context.Context, f EventFilter) ([]*Event, error) {
	where, args := f.where()
	query := `SELECT ` + eventColumns + eventFrom + where + ` ORDER BY e.starts_at, e.id`
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadEventSectors(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountEvents returns the number of events matching the filter.
func (s *Store) CountEvents(ctx context.Context, f EventFilter) (int, error) {
	where, args := f.where()
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM events e`+where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// EventsBetween returns events starting inside [from, to), for the
// calendar feed.
func (s *Store) EventsBetween(ctx context.Context, from, to time.Time) ([]*Event, error) {
	return s.ListEvents(ctx, EventFilter{From: &from, To: &to})
}

// Timeline returns the next events from a reference instant, capped at
// limit.
func (s *Store) Timeline(ctx context.Context, from time.Time, limit int) ([]*Event, error) {
	return s.ListEvents(ctx, EventFilter{From: &from, Limit: limit})
}

// loadEventSectors attaches sector tags to a batch of events.
func (s *Store) loadEventSectors(ctx context.Context, events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[int64]*Event, len(events))
	ids := make([]string, len(events))
	args := make([]interface{}, len(events))
	for i, e := range events {
		byID[e.ID] = e
		ids[i] = "?"
		args[i] = e.ID
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT es.event_id, s.id, s.name, s.color, s.position, s.created_at, s.updated_at
		FROM event_sectors es
		JOIN sectors s ON s.id = es.sector_id
		WHERE es.event_id IN (`+strings.Join(ids, ", ")+`)
		ORDER BY s.position, s.name`), args...)
	if err != nil {
		return fmt.Errorf("failed to load event sectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int64
		var sec Sector
		if err := rows.Scan(&eventID, &sec.ID, &sec.Name, &sec.Color, &sec.Position,
			&sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan event sector: %w", err)
		}
		if e, ok := byID[eventID]; ok {
			e.Sectors = append(e.Sectors, &sec)
		}
	}
	return rows.Err()
}

// Decide records an approval decision on one track of an event.
func (s *Store) Decide(ctx context.Context, eventID int64, track ApprovalTrack,
	status ApprovalStatus, deciderID int64, comment string) error {

	var col string
	switch track {
	case TrackDeputy:
		col = "deputy"
	case TrackDirector:
		col = "director"
	default:
		return fmt.Errorf("unknown approval track %q", track)
	}

	now := time.Now().UTC()
	return s.execOne(ctx, "failed to record decision", fmt.Sprintf(`
		UPDATE events SET
			%[1]s_status = ?, %[1]s_decided_at = ?, %[1]s_decider_id = ?, %[1]s_comment = ?,
			updated_at = ?
		WHERE id = ? AND %[1]s_requested = TRUE`, col),
		status, now, deciderID, comment, now, eventID)
}

// Stats aggregates the numbers for the statistics page: per-track totals
// over all events and a monthly plus per-sector breakdown for one year.
func (s *Store) Stats(ctx context.Context, year int) (*EventStats, error) {
	var st EventStats

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+eventColumns+eventFrom))
	if err != nil {
		return nil, fmt.Errorf("failed to load events for stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		st.Total++
		switch e.OverallStatus() {
		case ApprovalPending:
			st.Pending++
		case ApprovalApproved:
			st.Approved++
		case ApprovalRefused:
			st.Refused++
		}
		if e.StartsAt.Year() == year {
			st.PerMonth[int(e.StartsAt.Month())-1]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srows, err := s.db.QueryContext(ctx, s.q(`
		SELECT s.id, s.name, s.color, COUNT(es.event_id)
		FROM sectors s
		LEFT JOIN event_sectors es ON es.sector_id = s.id
		GROUP BY s.id, s.name, s.color, s.position
		ORDER BY s.position, s.name`))
	if err != nil {
		return nil, fmt.Errorf("failed to load sector stats: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var sc SectorCount
		if err := srows.Scan(&sc.SectorID, &sc.Name, &sc.Color, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sector stats: %w", err)
		}
		st.BySector = append(st.BySector, sc)
	}
	return &st, srows.Err()
}

// AddAttachment stores attachment metadata, filling in the ID and
// position (appended after existing files).
func (s *Store) AddAttachment(ctx context.Context, a *Attachment) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO attachments (event_id, name, stored_name, kind, size, position, uploaded_at)
		VALUES (?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM attachments WHERE event_id = ?),
			?)
		RETURNING id, position`),
		a.EventID, a.Name, a.StoredName, a.Kind, a.Size, a.EventID, now,
	).Scan(&a.ID, &a.Position)
	if err != nil {
		return fmt.Errorf("failed to add attachment: %w", err)
	}
	a.UploadedAt = now
	return nil
}

// Attachments returns an event's files in display order.
func (s *Store) Attachments(ctx context.Context, eventID int64) ([]*Attachment, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, event_id, name, stored_name, kind, size, position, uploaded_at
		FROM attachments WHERE event_id = ?
		ORDER BY position, id`), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var atts []*Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.EventID, &a.Name, &a.StoredName, &a.Kind,
			&a.Size, &a.Position, &a.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		atts = append(atts, &a)
	}
	return atts, rows.Err()
}

// GetAttachment returns one attachment by ID.
func (s *Store) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	var a Attachment
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, event_id, name, stored_name, kind, size, position, uploaded_at
		FROM attachments WHERE id = ?`), id).
		Scan(&a.ID, &a.EventID, &a.Name, &a.StoredName, &a.Kind, &a.Size, &a.Position, &a.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &a, nil
}

// DeleteAttachment removes attachment metadata.
func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	return s.execOne(ctx, "failed to delete attachment", `DELETE FROM attachments WHERE id = ?`, id)
}

// CountAttachments returns how many files an event carries.
func (s *Store) CountAttachments(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM attachments WHERE event_id = ?`), eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return n, nil
}
