// Package postgres implements the PostgreSQL persistence layer for TypeFlow.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_typing_sessions",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_sample_texts",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_leaderboard_entries",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    username VARCHAR(30) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    full_name VARCHAR(100),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Per-user preferences (JSONB for flexibility)
    settings JSONB NOT NULL DEFAULT '{
        "sound_enabled": true,
        "keyboard_layout": "qwerty",
        "theme": "system",
        "show_live_wpm": true
    }'::jsonb,

    CONSTRAINT valid_username CHECK (char_length(username) >= 3)
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE TYPING SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create typing_sessions table
-- Version: 002

CREATE TABLE IF NOT EXISTS typing_sessions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    user_input TEXT NOT NULL DEFAULT '',
    wpm DOUBLE PRECISION NOT NULL,
    accuracy DOUBLE PRECISION NOT NULL,
    duration_seconds INTEGER NOT NULL,
    total_characters INTEGER NOT NULL DEFAULT 0,
    correct_characters INTEGER NOT NULL DEFAULT 0,
    incorrect_characters INTEGER NOT NULL DEFAULT 0,
    session_type VARCHAR(20) NOT NULL DEFAULT 'practice',
    difficulty VARCHAR(20) NOT NULL DEFAULT 'beginner',
    sample_text_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_session_type CHECK (session_type IN ('practice', 'test', 'game')),
    CONSTRAINT valid_difficulty CHECK (difficulty IN ('beginner', 'intermediate', 'advanced', 'expert')),
    CONSTRAINT valid_wpm CHECK (wpm >= 0),
    CONSTRAINT valid_accuracy CHECK (accuracy >= 0 AND accuracy <= 100),
    CONSTRAINT valid_duration CHECK (duration_seconds >= 1)
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON typing_sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_user_created ON typing_sessions(user_id, created_at DESC);

-- Covers the per-period best-result scans run on every leaderboard update
CREATE INDEX IF NOT EXISTS idx_sessions_user_range ON typing_sessions(user_id, created_at);
`

const migration002Down = `
DROP TABLE IF EXISTS typing_sessions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE SAMPLE TEXTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create sample_texts table
-- Version: 003

CREATE TABLE IF NOT EXISTS sample_texts (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(200) NOT NULL,
    content TEXT NOT NULL,
    difficulty VARCHAR(20) NOT NULL DEFAULT 'beginner',
    keyboard_row VARCHAR(20) NOT NULL DEFAULT 'all',
    includes_numbers BOOLEAN NOT NULL DEFAULT FALSE,
    includes_special_chars BOOLEAN NOT NULL DEFAULT FALSE,
    character_count INTEGER NOT NULL,
    word_count INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_text_difficulty CHECK (difficulty IN ('beginner', 'intermediate', 'advanced', 'expert')),
    CONSTRAINT valid_keyboard_row CHECK (keyboard_row IN ('home', 'top', 'bottom', 'all')),
    CONSTRAINT non_empty_content CHECK (char_length(content) > 0)
);

CREATE INDEX IF NOT EXISTS idx_texts_difficulty ON sample_texts(difficulty);
CREATE INDEX IF NOT EXISTS idx_texts_keyboard_row ON sample_texts(keyboard_row);
CREATE INDEX IF NOT EXISTS idx_texts_character_count ON sample_texts(character_count);
`

const migration003Down = `
DROP TABLE IF EXISTS sample_texts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE LEADERBOARD ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create leaderboard_entries table
-- Version: 004

-- One row per user per period bucket. period_date pins the bucket start
-- (day / ISO week / month start, or the fixed all-time sentinel date),
-- so historical buckets stay addressable after the period rolls over.
CREATE TABLE IF NOT EXISTS leaderboard_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    period VARCHAR(20) NOT NULL,
    period_date DATE NOT NULL,
    best_wpm DOUBLE PRECISION NOT NULL DEFAULT 0,
    best_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
    overall_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    session_count INTEGER NOT NULL DEFAULT 0,
    best_wpm_session_id UUID,
    best_accuracy_session_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_period CHECK (period IN ('daily', 'weekly', 'monthly', 'all_time')),
    CONSTRAINT valid_session_count CHECK (session_count >= 0),

    UNIQUE(user_id, period, period_date)
);

-- One descending index per ranking column keeps every category page
-- an index scan.
CREATE INDEX IF NOT EXISTS idx_leaderboard_overall ON leaderboard_entries(period, period_date, overall_score DESC, id ASC);
CREATE INDEX IF NOT EXISTS idx_leaderboard_speed ON leaderboard_entries(period, period_date, best_wpm DESC, id ASC);
CREATE INDEX IF NOT EXISTS idx_leaderboard_accuracy ON leaderboard_entries(period, period_date, best_accuracy DESC, id ASC);
CREATE INDEX IF NOT EXISTS idx_leaderboard_activity ON leaderboard_entries(period, period_date, session_count DESC, id ASC);
CREATE INDEX IF NOT EXISTS idx_leaderboard_user ON leaderboard_entries(user_id, period, period_date);
`

const migration004Down = `
DROP TABLE IF EXISTS leaderboard_entries;
`
