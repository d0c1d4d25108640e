package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
)

const eventColumns = `
	id, title, description, event_date, event_time, duration, venue, capacity,
	category, priority, tags, estimated_cost, requirements, contact_name,
	contact_email, contact_phone, is_template, template_name, status,
	submitted_by, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

type eventRow struct {
	ID            uuid.UUID           `db:"id"`
	Title         string              `db:"title"`
	Description   string              `db:"description"`
	EventDate     time.Time           `db:"event_date"`
	EventTime     string              `db:"event_time"`
	Duration      string              `db:"duration"`
	Venue         string              `db:"venue"`
	Capacity      int                 `db:"capacity"`
	Category      model.EventCategory `db:"category"`
	Priority      model.Priority      `db:"priority"`
	Tags          pq.StringArray      `db:"tags"`
	EstimatedCost decimal.NullDecimal `db:"estimated_cost"`
	Requirements  string              `db:"requirements"`
	ContactName   string              `db:"contact_name"`
	ContactEmail  string              `db:"contact_email"`
	ContactPhone  string              `db:"contact_phone"`
	IsTemplate    bool                `db:"is_template"`
	TemplateName  string              `db:"template_name"`
	Status        model.EventStatus   `db:"status"`
	SubmittedBy   uuid.UUID           `db:"submitted_by"`
	ReviewedBy    uuid.NullUUID       `db:"reviewed_by"`
	ReviewedAt    sql.NullTime        `db:"reviewed_at"`
	ReviewNotes   string              `db:"review_notes"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

type feedbackRow struct {
	EventID     uuid.UUID `db:"event_id"`
	UserID      uuid.UUID `db:"user_id"`
	Rating      int       `db:"rating"`
	Comment     string    `db:"comment"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func toEventRow(e *model.Event) eventRow {
	row := eventRow{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		EventDate:    e.EventDate,
		EventTime:    e.EventTime,
		Duration:     e.Duration,
		Venue:        e.Venue,
		Capacity:     e.Capacity,
		Category:     e.Category,
		Priority:     e.Priority,
		Tags:         pq.StringArray(e.Tags),
		Requirements: e.Requirements,
		ContactName:  e.ContactPerson.Name,
		ContactEmail: e.ContactPerson.Email,
		ContactPhone: e.ContactPerson.Phone,
		IsTemplate:   e.IsTemplate,
		TemplateName: e.TemplateName,
		Status:       e.Status,
		SubmittedBy:  e.SubmittedBy,
		ReviewNotes:  e.ReviewNotes,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if row.Tags == nil {
		row.Tags = pq.StringArray{}
	}
	if e.EstimatedCost != nil {
		row.EstimatedCost = decimal.NewNullDecimal(*e.EstimatedCost)
	}
	if e.ReviewedBy != nil {
		row.ReviewedBy = uuid.NullUUID{UUID: *e.ReviewedBy, Valid: true}
	}
	if e.ReviewedAt != nil {
		row.ReviewedAt = sql.NullTime{Time: *e.ReviewedAt, Valid: true}
	}
	return row
}

func (row eventRow) toModel(feedback []feedbackRow) *model.Event {
	e := &model.Event{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		EventDate:    row.EventDate,
		EventTime:    row.EventTime,
		Duration:     row.Duration,
		Venue:        row.Venue,
		Capacity:     row.Capacity,
		Category:     row.Category,
		Priority:     row.Priority,
		Tags:         []string(row.Tags),
		Requirements: row.Requirements,
		ContactPerson: model.ContactPerson{
			Name:  row.ContactName,
			Email: row.ContactEmail,
			Phone: row.ContactPhone,
		},
		IsTemplate:   row.IsTemplate,
		TemplateName: row.TemplateName,
		Status:       row.Status,
		SubmittedBy:  row.SubmittedBy,
		ReviewNotes:  row.ReviewNotes,
		Feedback:     make([]model.Feedback, 0, len(feedback)),
		Base:         model.Base{CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt},
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if row.EstimatedCost.Valid {
		cost := row.EstimatedCost.Decimal
		e.EstimatedCost = &cost
	}
	if row.ReviewedBy.Valid {
		id := row.ReviewedBy.UUID
		e.ReviewedBy = &id
	}
	if row.ReviewedAt.Valid {
		at := row.ReviewedAt.Time
		e.ReviewedAt = &at
	}
	for _, f := range feedback {
		e.Feedback = append(e.Feedback, model.Feedback{
			UserID:      f.UserID,
			Rating:      f.Rating,
			Comment:     f.Comment,
			SubmittedAt: f.SubmittedAt,
		})
	}
	return e
}

type eventRepository struct {
	BaseRepository
}

func NewEventRepository(base BaseRepository) repository.EventRepository {
	return &eventRepository{base}
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `
		) VALUES (
			:id, :title, :description, :event_date, :event_time, :duration, :venue, :capacity,
			:category, :priority, :tags, :estimated_cost, :requirements, :contact_name,
			:contact_email, :contact_phone, :is_template, :template_name, :status,
			:submitted_by, :reviewed_by, :reviewed_at, :review_notes, :created_at, :updated_at
		)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if _, err := r.db.NamedExecContext(ctx, query, toEventRow(event)); err != nil {
		return fmt.Errorf("failed to create event: %w", translate(err))
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("failed to get event: %w", translate(err))
	}

	feedback, err := r.feedbackFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return row.toModel(feedback[id]), nil
}

// UpdateIfStatus writes the mutable columns guarded by the expected status.
// submitted_by and created_at are never written.
func (r *eventRepository) UpdateIfStatus(ctx context.Context, event *model.Event, expected model.EventStatus) error {
	query := `
		UPDATE events SET
			title = :title,
			description = :description,
			event_date = :event_date,
			event_time = :event_time,
			duration = :duration,
			venue = :venue,
			capacity = :capacity,
			category = :category,
			priority = :priority,
			tags = :tags,
			estimated_cost = :estimated_cost,
			requirements = :requirements,
			contact_name = :contact_name,
			contact_email = :contact_email,
			contact_phone = :contact_phone,
			is_template = :is_template,
			template_name = :template_name,
			status = :status,
			reviewed_by = :reviewed_by,
			reviewed_at = :reviewed_at,
			review_notes = :review_notes,
			updated_at = :updated_at
		WHERE id = :id AND status = :expected_status
	`

	args := struct {
		eventRow
		ExpectedStatus model.EventStatus `db:"expected_status"`
	}{toEventRow(event), expected}

	result, err := r.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.missingOrStale(ctx, event.ID)
	}
	return nil
}

func (r *eventRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, allowed ...model.EventStatus) error {
	query := `DELETE FROM events WHERE id = $1 AND status = ANY($2)`

	statuses := make([]string, 0, len(allowed))
	for _, s := range allowed {
		statuses = append(statuses, string(s))
	}

	result, err := r.db.ExecContext(ctx, query, id, pq.Array(statuses))
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

// AddFeedback inserts only while the event is completed. The primary key on
// (event_id, user_id) rejects a second entry from the same user.
func (r *eventRepository) AddFeedback(ctx context.Context, eventID uuid.UUID, feedback model.Feedback) error {
	insert := `
		INSERT INTO event_feedback (event_id, user_id, rating, comment, submitted_at)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM events WHERE id = $1 AND status = $6)
	`
	touch := `UPDATE events SET updated_at = $1 WHERE id = $2`

	var inserted int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, insert,
			eventID,
			feedback.UserID,
			feedback.Rating,
			feedback.Comment,
			feedback.SubmittedAt,
			string(model.EventStatusCompleted),
		)
		if err != nil {
			return translate(err)
		}
		if inserted, err = result.RowsAffected(); err != nil || inserted == 0 {
			return err
		}
		_, err = tx.ExecContext(ctx, touch, feedback.SubmittedAt, eventID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to add feedback: %w", err)
	}
	if inserted == 0 {
		return r.missingOrStale(ctx, eventID)
	}
	return nil
}

func (r *eventRepository) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.SubmittedBy != nil {
		args = append(args, *filter.SubmittedBy)
		where = append(where, fmt.Sprintf("submitted_by = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	column, ok := model.EventSortFields[filter.Field]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if !filter.Descending() {
		dir = "ASC"
	}

	query := `SELECT ` + eventColumns + ` FROM events` + clause +
		fmt.Sprintf(" ORDER BY %s %s, id LIMIT $%d OFFSET $%d", column, dir, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	feedback, err := r.feedbackFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	events := make([]*model.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel(feedback[row.ID]))
	}
	return events, total, nil
}

func (r *eventRepository) CountByStatus(ctx context.Context, submittedBy uuid.UUID) (*model.StatusCounts, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM events
		WHERE submitted_by = $1
		GROUP BY status
	`

	var rows []struct {
		Status model.EventStatus `db:"status"`
		Count  int               `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, submittedBy); err != nil {
		return nil, fmt.Errorf("failed to count events by status: %w", err)
	}

	counts := &model.StatusCounts{}
	for _, row := range rows {
		counts.Add(row.Status, row.Count)
	}
	return counts, nil
}

func (r *eventRepository) ListAnalyticsRows(ctx context.Context, from, to time.Time) ([]model.AnalyticsRow, error) {
	query := `
		SELECT e.id, e.created_at, e.status, e.category, e.event_date, e.event_time,
			COALESCE(array_agg(f.rating ORDER BY f.submitted_at) FILTER (WHERE f.rating IS NOT NULL), '{}') AS ratings
		FROM events e
		LEFT JOIN event_feedback f ON f.event_id = e.id
		WHERE e.created_at >= $1 AND e.created_at < $2
		GROUP BY e.id
		ORDER BY e.created_at ASC, e.id
	`

	var rows []struct {
		model.AnalyticsRow
		Ratings pq.Int64Array `db:"ratings"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list analytics rows: %w", err)
	}

	out := make([]model.AnalyticsRow, 0, len(rows))
	for _, row := range rows {
		ar := row.AnalyticsRow
		for _, rating := range row.Ratings {
			ar.Ratings = append(ar.Ratings, int(rating))
		}
		out = append(out, ar)
	}
	return out, nil
}

func (r *eventRepository) feedbackFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]feedbackRow, error) {
	out := make(map[uuid.UUID][]feedbackRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `
		SELECT event_id, user_id, rating, comment, submitted_at
		FROM event_feedback
		WHERE event_id = ANY($1::uuid[])
		ORDER BY submitted_at ASC
	`

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	var rows []feedbackRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	for _, row := range rows {
		out[row.EventID] = append(out[row.EventID], row)
	}
	return out, nil
}

// missingOrStale explains why a conditional write touched no rows
func (r *eventRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStaleState
}
