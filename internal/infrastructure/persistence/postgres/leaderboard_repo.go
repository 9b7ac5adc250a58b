// Package postgres implements the PostgreSQL persistence layer for TypeFlow.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// Upsert atomically creates or fully overwrites the entry keyed by
// (user_id, period, period_date). A single ON CONFLICT statement keeps
// concurrent recomputes from racing a separate find-then-insert.
func (r *LeaderboardRepository) Upsert(ctx context.Context, e *leaderboard.Entry) error {
	query := `
		INSERT INTO leaderboard_entries (
			id, user_id, period, period_date,
			best_wpm, best_accuracy, overall_score, session_count,
			best_wpm_session_id, best_accuracy_session_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, period, period_date) DO UPDATE SET
			best_wpm = EXCLUDED.best_wpm,
			best_accuracy = EXCLUDED.best_accuracy,
			overall_score = EXCLUDED.overall_score,
			session_count = EXCLUDED.session_count,
			best_wpm_session_id = EXCLUDED.best_wpm_session_id,
			best_accuracy_session_id = EXCLUDED.best_accuracy_session_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID,
		e.UserID,
		string(e.Period),
		e.PeriodDate,
		e.BestWPM,
		e.BestAccuracy,
		e.OverallScore,
		e.SessionCount,
		nullString(e.BestWPMSessionID),
		nullString(e.BestAccuracySessionID),
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard entry: %w", err)
	}

	return nil
}

// Get returns the entry for a specific bucket key.
func (r *LeaderboardRepository) Get(ctx context.Context, userID string, period leaderboard.Period, periodDate time.Time) (*leaderboard.Entry, error) {
	query := `
		SELECT id, user_id, period, period_date,
			   best_wpm, best_accuracy, overall_score, session_count,
			   best_wpm_session_id, best_accuracy_session_id,
			   created_at, updated_at
		FROM leaderboard_entries
		WHERE user_id = $1 AND period = $2 AND period_date = $3
	`

	var (
		e           leaderboard.Entry
		periodStr   string
		bestWPMID   *string
		bestAccID   *string
	)

	err := r.conn.QueryRow(ctx, query, userID, string(period), periodDate).Scan(
		&e.ID,
		&e.UserID,
		&periodStr,
		&e.PeriodDate,
		&e.BestWPM,
		&e.BestAccuracy,
		&e.OverallScore,
		&e.SessionCount,
		&bestWPMID,
		&bestAccID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}

	e.Period = leaderboard.Period(periodStr)
	if bestWPMID != nil {
		e.BestWPMSessionID = *bestWPMID
	}
	if bestAccID != nil {
		e.BestAccuracySessionID = *bestAccID
	}

	return &e, nil
}

// ListUserEntries returns all of a user's entries across periods and
// buckets, oldest bucket first.
func (r *LeaderboardRepository) ListUserEntries(ctx context.Context, userID string) ([]*leaderboard.Entry, error) {
	query := `
		SELECT id, user_id, period, period_date,
			   best_wpm, best_accuracy, overall_score, session_count,
			   best_wpm_session_id, best_accuracy_session_id,
			   created_at, updated_at
		FROM leaderboard_entries
		WHERE user_id = $1
		ORDER BY period, period_date
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user entries: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	for rows.Next() {
		var (
			e         leaderboard.Entry
			periodStr string
			bestWPMID *string
			bestAccID *string
		)

		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&periodStr,
			&e.PeriodDate,
			&e.BestWPM,
			&e.BestAccuracy,
			&e.OverallScore,
			&e.SessionCount,
			&bestWPMID,
			&bestAccID,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user entry: %w", err)
		}

		e.Period = leaderboard.Period(periodStr)
		if bestWPMID != nil {
			e.BestWPMSessionID = *bestWPMID
		}
		if bestAccID != nil {
			e.BestAccuracySessionID = *bestAccID
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Page returns a page of entries ordered by the category column DESC
// with entry id as the deterministic tiebreak. The order column comes
// from a closed set in the domain package, never from user input.
func (r *LeaderboardRepository) Page(ctx context.Context, q leaderboard.PageQuery) ([]*leaderboard.RankedEntry, error) {
	where, args := buildLeaderboardWhere(q.Filter)

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, q.Offset)

	query := fmt.Sprintf(`
		SELECT e.id, e.user_id, e.period, e.period_date,
			   e.best_wpm, e.best_accuracy, e.overall_score, e.session_count,
			   e.best_wpm_session_id, e.best_accuracy_session_id,
			   e.created_at, e.updated_at,
			   u.username
		FROM leaderboard_entries e
		JOIN users u ON u.id = e.user_id
		%s
		ORDER BY e.%s DESC, e.id ASC
		LIMIT $%d OFFSET $%d
	`, where, q.Category.OrderColumn(), len(args)-1, len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard page: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.RankedEntry
	for rows.Next() {
		var (
			re        leaderboard.RankedEntry
			periodStr string
			bestWPMID *string
			bestAccID *string
		)

		err := rows.Scan(
			&re.ID,
			&re.UserID,
			&periodStr,
			&re.PeriodDate,
			&re.BestWPM,
			&re.BestAccuracy,
			&re.OverallScore,
			&re.SessionCount,
			&bestWPMID,
			&bestAccID,
			&re.CreatedAt,
			&re.UpdatedAt,
			&re.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}

		re.Period = leaderboard.Period(periodStr)
		if bestWPMID != nil {
			re.BestWPMSessionID = *bestWPMID
		}
		if bestAccID != nil {
			re.BestAccuracySessionID = *bestAccID
		}

		entries = append(entries, &re)
	}

	return entries, rows.Err()
}

// Count returns the number of entries matching the filter.
func (r *LeaderboardRepository) Count(ctx context.Context, f leaderboard.Filter) (int, error) {
	where, args := buildLeaderboardWhere(f)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM leaderboard_entries e
		JOIN users u ON u.id = e.user_id
		%s
	`, where)

	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}

	return count, nil
}

// CountGreater returns the number of entries whose category value is
// strictly greater than value. Rank is CountGreater + 1.
func (r *LeaderboardRepository) CountGreater(ctx context.Context, f leaderboard.Filter, category leaderboard.Category, value float64) (int, error) {
	where, args := buildLeaderboardWhere(f)
	args = append(args, value)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM leaderboard_entries e
		JOIN users u ON u.id = e.user_id
		%s AND e.%s > $%d
	`, where, category.OrderColumn(), len(args))

	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count greater entries: %w", err)
	}

	return count, nil
}

// FindUserEntry returns one user's entry within the filter's bucket.
func (r *LeaderboardRepository) FindUserEntry(ctx context.Context, f leaderboard.Filter, userID string) (*leaderboard.RankedEntry, error) {
	where, args := buildLeaderboardWhere(f)
	args = append(args, userID)

	query := fmt.Sprintf(`
		SELECT e.id, e.user_id, e.period, e.period_date,
			   e.best_wpm, e.best_accuracy, e.overall_score, e.session_count,
			   e.best_wpm_session_id, e.best_accuracy_session_id,
			   e.created_at, e.updated_at,
			   u.username
		FROM leaderboard_entries e
		JOIN users u ON u.id = e.user_id
		%s AND e.user_id = $%d
	`, where, len(args))

	var (
		re        leaderboard.RankedEntry
		periodStr string
		bestWPMID *string
		bestAccID *string
	)

	err := r.conn.QueryRow(ctx, query, args...).Scan(
		&re.ID,
		&re.UserID,
		&periodStr,
		&re.PeriodDate,
		&re.BestWPM,
		&re.BestAccuracy,
		&re.OverallScore,
		&re.SessionCount,
		&bestWPMID,
		&bestAccID,
		&re.CreatedAt,
		&re.UpdatedAt,
		&re.Username,
	)
	if IsNoRows(err) {
		return nil, shared.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user entry: %w", err)
	}

	re.Period = leaderboard.Period(periodStr)
	if bestWPMID != nil {
		re.BestWPMSessionID = *bestWPMID
	}
	if bestAccID != nil {
		re.BestAccuracySessionID = *bestAccID
	}

	return &re, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Query Builders
// ─────────────────────────────────────────────────────────────────────────────

// buildLeaderboardWhere assembles the bucket filter shared by every
// leaderboard read so page, count and rank queries always see the same
// set of rows.
func buildLeaderboardWhere(f leaderboard.Filter) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{string(f.Period), f.RangeStart, f.RangeEnd}

	sb.WriteString("WHERE e.period = $1 AND e.period_date >= $2 AND e.period_date <= $3")

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		fmt.Fprintf(&sb, " AND u.username ILIKE $%d", len(args))
	}

	return sb.String(), args
}
