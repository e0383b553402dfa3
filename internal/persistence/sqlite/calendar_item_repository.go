package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/team-calendar/internal/persistence"
)

// CalendarItemRepository implements persistence.CalendarItemRepository on
// SQLite.
type CalendarItemRepository struct {
	pool *ConnectionPool
}

// NewCalendarItemRepository constructs a calendar item repository on the
// pool.
func NewCalendarItemRepository(pool *ConnectionPool) *CalendarItemRepository {
	return &CalendarItemRepository{pool: pool}
}

const calendarItemSelect = `
	SELECT i.id, i.type, i.title, i.description, i.start_at, i.end_at, i.all_day,
	       i.status, i.location, i.created_by_id, i.created_at, i.updated_at,
	       u.name, u.email
	FROM calendar_items i
	JOIN users u ON u.id = i.created_by_id
`

// CreateCalendarItem inserts the item and its participant rows in one
// transaction.
func (r *CalendarItemRepository) CreateCalendarItem(ctx context.Context, item persistence.CalendarItem) error {
	if item.ID == "" {
		return persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO calendar_items (id, type, title, description, start_at, end_at, all_day, status, location, created_by_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query,
			item.ID,
			item.Type,
			item.Title,
			nullableString(item.Description),
			formatTime(item.StartAt),
			nullableTime(item.EndAt),
			item.AllDay,
			item.Status,
			nullableString(item.Location),
			item.CreatedByID,
			formatTime(item.CreatedAt),
			formatTime(item.UpdatedAt),
		); err != nil {
			return err
		}
		return insertParticipants(ctx, tx, item.ID, item.Participants)
	})
	return mapError(err)
}

// GetCalendarItem returns the item with its participants in stored order.
func (r *CalendarItemRepository) GetCalendarItem(ctx context.Context, id string) (persistence.CalendarItem, error) {
	if id == "" {
		return persistence.CalendarItem{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, calendarItemSelect+` WHERE i.id = ?`, id)
	item, err := scanCalendarItem(row)
	if err != nil {
		return persistence.CalendarItem{}, err
	}

	if item.Participants, err = r.loadParticipants(ctx, id); err != nil {
		return persistence.CalendarItem{}, err
	}
	return item, nil
}

// UpdateCalendarItem replaces the stored item. When replaceParticipants is
// set the participant rows are deleted and recreated from the given list;
// otherwise they are left untouched.
func (r *CalendarItemRepository) UpdateCalendarItem(ctx context.Context, item persistence.CalendarItem, replaceParticipants bool) error {
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE calendar_items
			SET type = ?, title = ?, description = ?, start_at = ?, end_at = ?, all_day = ?, status = ?, location = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := tx.ExecContext(ctx, query,
			item.Type,
			item.Title,
			nullableString(item.Description),
			formatTime(item.StartAt),
			nullableTime(item.EndAt),
			item.AllDay,
			item.Status,
			nullableString(item.Location),
			formatTime(item.UpdatedAt),
			item.ID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if !replaceParticipants {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_item_participants WHERE item_id = ?`, item.ID); err != nil {
			return err
		}
		return insertParticipants(ctx, tx, item.ID, item.Participants)
	})
	return mapError(err)
}

// DeleteCalendarItem removes the item; participant rows cascade.
func (r *CalendarItemRepository) DeleteCalendarItem(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM calendar_items WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListCalendarItems returns items matching the filter ordered by start time.
// Range bounds are inclusive against start_at; the title search is a
// case-sensitive substring match.
func (r *CalendarItemRepository) ListCalendarItems(ctx context.Context, filter persistence.CalendarItemFilter) ([]persistence.CalendarItem, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.From != nil {
		conditions = append(conditions, "i.start_at >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "i.start_at <= ?")
		args = append(args, formatTime(*filter.To))
	}
	if filter.Type != "" {
		conditions = append(conditions, "i.type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, "i.status = ?")
		args = append(args, filter.Status)
	}
	if filter.TitleSearch != "" {
		// instr is case sensitive, unlike LIKE.
		conditions = append(conditions, "instr(i.title, ?) > 0")
		args = append(args, filter.TitleSearch)
	}

	query := calendarItemSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY i.start_at, i.id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []persistence.CalendarItem
	for rows.Next() {
		item, scanErr := scanCalendarItem(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range items {
		if items[i].Participants, err = r.loadParticipants(ctx, items[i].ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, itemID string, participants []persistence.CalendarItemParticipant) error {
	for _, participant := range participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_item_participants (item_id, user_id, role, rsvp, position) VALUES (?, ?, ?, ?, ?)`,
			itemID,
			participant.UserID,
			participant.Role,
			nullableString(participant.RSVP),
			participant.Position,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *CalendarItemRepository) loadParticipants(ctx context.Context, itemID string) ([]persistence.CalendarItemParticipant, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT p.item_id, p.user_id, p.role, p.rsvp, p.position, u.name, u.email
		FROM calendar_item_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.item_id = ?
		ORDER BY p.position, p.user_id
	`, itemID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var participants []persistence.CalendarItemParticipant
	for rows.Next() {
		var (
			participant persistence.CalendarItemParticipant
			rsvp        sql.NullString
		)
		if err := rows.Scan(
			&participant.ItemID, &participant.UserID, &participant.Role, &rsvp, &participant.Position,
			&participant.User.Name, &participant.User.Email,
		); err != nil {
			return nil, mapError(err)
		}
		participant.RSVP = stringPtr(rsvp)
		participant.User.ID = participant.UserID
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return participants, nil
}

func scanCalendarItem(row rowScanner) (persistence.CalendarItem, error) {
	var (
		item        persistence.CalendarItem
		description sql.NullString
		startAt     string
		endAt       sql.NullString
		location    sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(
		&item.ID, &item.Type, &item.Title, &description, &startAt, &endAt, &item.AllDay,
		&item.Status, &location, &item.CreatedByID, &createdAt, &updatedAt,
		&item.CreatedBy.Name, &item.CreatedBy.Email,
	)
	if err != nil {
		return persistence.CalendarItem{}, mapError(err)
	}
	item.CreatedBy.ID = item.CreatedByID
	item.Description = stringPtr(description)
	item.Location = stringPtr(location)

	if item.StartAt, err = parseTime(startAt); err != nil {
		return persistence.CalendarItem{}, fmt.Errorf("sqlite: parse item start_at: %w", err)
	}
	if item.EndAt, err = timePtr(endAt); err != nil {
		return persistence.CalendarItem{}, fmt.Errorf("sqlite: parse item end_at: %w", err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.CalendarItem{}, fmt.Errorf("sqlite: parse item created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.CalendarItem{}, fmt.Errorf("sqlite: parse item updated_at: %w", err)
	}
	return item, nil
}
