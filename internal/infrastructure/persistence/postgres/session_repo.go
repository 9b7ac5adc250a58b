// Package postgres implements the PostgreSQL persistence layer for TypeFlow.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

const sessionColumns = `id, user_id, text, user_input, wpm, accuracy, duration_seconds,
	total_characters, correct_characters, incorrect_characters,
	session_type, difficulty, sample_text_id, created_at`

// Create saves a new typing session.
func (r *SessionRepository) Create(ctx context.Context, s *session.TypingSession) error {
	query := `
		INSERT INTO typing_sessions (
			id, user_id, text, user_input, wpm, accuracy, duration_seconds,
			total_characters, correct_characters, incorrect_characters,
			session_type, difficulty, sample_text_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.Text,
		s.UserInput,
		s.WPM,
		s.Accuracy,
		s.DurationSeconds,
		s.TotalCharacters,
		s.CorrectCharacters,
		s.IncorrectCharacters,
		string(s.SessionType),
		string(s.Difficulty),
		nullString(s.SampleTextID),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID returns a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.TypingSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM typing_sessions WHERE id = $1`, sessionColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanSession(row)
}

// Update saves a modified session.
func (r *SessionRepository) Update(ctx context.Context, s *session.TypingSession) error {
	query := `
		UPDATE typing_sessions SET
			text = $1,
			user_input = $2,
			wpm = $3,
			accuracy = $4,
			duration_seconds = $5,
			total_characters = $6,
			correct_characters = $7,
			incorrect_characters = $8,
			session_type = $9,
			difficulty = $10,
			sample_text_id = $11
		WHERE id = $12
	`

	result, err := r.conn.Exec(ctx, query,
		s.Text,
		s.UserInput,
		s.WPM,
		s.Accuracy,
		s.DurationSeconds,
		s.TotalCharacters,
		s.CorrectCharacters,
		s.IncorrectCharacters,
		string(s.SessionType),
		string(s.Difficulty),
		nullString(s.SampleTextID),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrSessionNotFound
	}

	return nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM typing_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrSessionNotFound
	}

	return nil
}

// ListByUser returns a page of the user's sessions, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, filter session.ListFilter) ([]*session.TypingSession, error) {
	where, args := buildSessionWhere(userID, filter)

	query := fmt.Sprintf(`
		SELECT %s FROM typing_sessions
		%s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, sessionColumns, where, len(args)+1, len(args)+2)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return r.scanSessions(rows)
}

// CountByUser returns the number of the user's sessions matching the filter.
func (r *SessionRepository) CountByUser(ctx context.Context, userID string, filter session.ListFilter) (int, error) {
	where, args := buildSessionWhere(userID, filter)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM typing_sessions %s`, where)

	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return count, nil
}

// FindByUserInRange returns all sessions of a user whose created_at falls
// within [start, end]. This is the query behind every leaderboard
// recompute, so it must return the complete set for the bucket.
func (r *SessionRepository) FindByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]*session.TypingSession, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM typing_sessions
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`, sessionColumns)

	rows, err := r.conn.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions in range: %w", err)
	}
	defer rows.Close()

	return r.scanSessions(rows)
}

// ListAllByUser returns every session of a user, oldest first.
func (r *SessionRepository) ListAllByUser(ctx context.Context, userID string) ([]*session.TypingSession, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM typing_sessions
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, sessionColumns)

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list all sessions: %w", err)
	}
	defer rows.Close()

	return r.scanSessions(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Query Builders and Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

// buildSessionWhere assembles the WHERE clause shared by ListByUser and
// CountByUser so pagination and totals always agree.
func buildSessionWhere(userID string, filter session.ListFilter) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{userID}

	sb.WriteString("WHERE user_id = $1")

	if filter.SessionType != "" {
		args = append(args, string(filter.SessionType))
		fmt.Fprintf(&sb, " AND session_type = $%d", len(args))
	}
	if filter.Difficulty != "" {
		args = append(args, string(filter.Difficulty))
		fmt.Fprintf(&sb, " AND difficulty = $%d", len(args))
	}

	return sb.String(), args
}

func (r *SessionRepository) scanSession(row pgx.Row) (*session.TypingSession, error) {
	var (
		s            session.TypingSession
		sessionType  string
		difficulty   string
		sampleTextID *string
	)

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Text,
		&s.UserInput,
		&s.WPM,
		&s.Accuracy,
		&s.DurationSeconds,
		&s.TotalCharacters,
		&s.CorrectCharacters,
		&s.IncorrectCharacters,
		&sessionType,
		&difficulty,
		&sampleTextID,
		&s.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s.SessionType = session.Type(sessionType)
	s.Difficulty = session.Difficulty(difficulty)
	if sampleTextID != nil {
		s.SampleTextID = *sampleTextID
	}

	return &s, nil
}

func (r *SessionRepository) scanSessions(rows pgx.Rows) ([]*session.TypingSession, error) {
	var sessions []*session.TypingSession

	for rows.Next() {
		var (
			s            session.TypingSession
			sessionType  string
			difficulty   string
			sampleTextID *string
		)

		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Text,
			&s.UserInput,
			&s.WPM,
			&s.Accuracy,
			&s.DurationSeconds,
			&s.TotalCharacters,
			&s.CorrectCharacters,
			&s.IncorrectCharacters,
			&sessionType,
			&difficulty,
			&sampleTextID,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		s.SessionType = session.Type(sessionType)
		s.Difficulty = session.Difficulty(difficulty)
		if sampleTextID != nil {
			s.SampleTextID = *sampleTextID
		}

		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}
