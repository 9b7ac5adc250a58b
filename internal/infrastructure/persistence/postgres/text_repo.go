// Package postgres implements the PostgreSQL persistence layer for TypeFlow.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/text"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAMPLE TEXT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TextRepository implements text.Repository for PostgreSQL.
type TextRepository struct {
	conn *Connection
}

// NewTextRepository creates a new TextRepository.
func NewTextRepository(conn *Connection) *TextRepository {
	return &TextRepository{conn: conn}
}

const textColumns = `id, title, content, difficulty, keyboard_row,
	includes_numbers, includes_special_chars, character_count, word_count, created_at`

// Create saves a new sample text.
func (r *TextRepository) Create(ctx context.Context, t *text.SampleText) error {
	query := `
		INSERT INTO sample_texts (
			id, title, content, difficulty, keyboard_row,
			includes_numbers, includes_special_chars, character_count, word_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Content,
		string(t.Difficulty),
		string(t.KeyboardRow),
		t.IncludesNumbers,
		t.IncludesSpecialChars,
		t.CharacterCount,
		t.WordCount,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sample text: %w", err)
	}

	return nil
}

// GetByID returns a sample text by ID.
func (r *TextRepository) GetByID(ctx context.Context, id string) (*text.SampleText, error) {
	query := fmt.Sprintf(`SELECT %s FROM sample_texts WHERE id = $1`, textColumns)

	row := r.conn.QueryRow(ctx, query, id)
	t, err := r.scanText(row)
	if IsNoRows(err) {
		return nil, shared.ErrTextNotFound
	}
	return t, err
}

// Find returns sample texts matching the filter.
func (r *TextRepository) Find(ctx context.Context, filter text.Filter) ([]*text.SampleText, error) {
	where, args := buildTextWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s FROM sample_texts
		%s
		ORDER BY created_at DESC
		LIMIT $%d
	`, textColumns, where, len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find sample texts: %w", err)
	}
	defer rows.Close()

	var texts []*text.SampleText
	for rows.Next() {
		t, err := r.scanText(rows)
		if err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}

	return texts, rows.Err()
}

// FindRandom returns a single random sample text matching the filter.
func (r *TextRepository) FindRandom(ctx context.Context, filter text.Filter) (*text.SampleText, error) {
	where, args := buildTextWhere(filter)

	query := fmt.Sprintf(`
		SELECT %s FROM sample_texts
		%s
		ORDER BY random()
		LIMIT 1
	`, textColumns, where)

	row := r.conn.QueryRow(ctx, query, args...)
	t, err := r.scanText(row)
	if IsNoRows(err) {
		return nil, shared.ErrNoMatchingText
	}
	return t, err
}

// Delete removes a sample text.
func (r *TextRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM sample_texts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sample text: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrTextNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Query Builders and Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

func buildTextWhere(filter text.Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Difficulty != "" {
		add("difficulty = $%d", string(filter.Difficulty))
	}
	if filter.KeyboardRow != "" {
		add("keyboard_row = $%d", string(filter.KeyboardRow))
	}
	if filter.IncludesNumbers != nil {
		add("includes_numbers = $%d", *filter.IncludesNumbers)
	}
	if filter.IncludesSpecialChars != nil {
		add("includes_special_chars = $%d", *filter.IncludesSpecialChars)
	}
	if filter.MinCharacters > 0 {
		add("character_count >= $%d", filter.MinCharacters)
	}
	if filter.MaxCharacters > 0 {
		add("character_count <= $%d", filter.MaxCharacters)
	}
	if filter.MinWords > 0 {
		add("word_count >= $%d", filter.MinWords)
	}
	if filter.MaxWords > 0 {
		add("word_count <= $%d", filter.MaxWords)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *TextRepository) scanText(row pgx.Row) (*text.SampleText, error) {
	var (
		t           text.SampleText
		difficulty  string
		keyboardRow string
	)

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Content,
		&difficulty,
		&keyboardRow,
		&t.IncludesNumbers,
		&t.IncludesSpecialChars,
		&t.CharacterCount,
		&t.WordCount,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Difficulty = session.Difficulty(difficulty)
	t.KeyboardRow = text.KeyboardRow(keyboardRow)

	return &t, nil
}
