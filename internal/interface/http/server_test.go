package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/typeflow-app/typeflow-backend/internal/application/command"
	"github.com/typeflow-app/typeflow-backend/internal/application/query"
	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/text"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/auth"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory repositories backing a full server instance. The routes are
// exercised through httptest against the real middleware chain.
// ─────────────────────────────────────────────────────────────────────────────

type memUserRepo struct {
	users map[string]*user.User
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return shared.ErrUserAlreadyExists
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByLogin(_ context.Context, login string) (*user.User, error) {
	for _, u := range r.users {
		if u.Username.String() == login || u.Email.String() == login {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *memUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, u := range r.users {
		if u.Username.String() == username || u.Email.String() == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Update(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) ListIDs(_ context.Context) ([]string, error) { return nil, nil }

type memSessionRepo struct {
	sessions map[string]*session.TypingSession
}

func (r *memSessionRepo) Create(_ context.Context, s *session.TypingSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*session.TypingSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return s, nil
}

func (r *memSessionRepo) Update(_ context.Context, s *session.TypingSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.sessions[id]; !ok {
		return shared.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) ListByUser(_ context.Context, userID string, _ session.ListFilter) ([]*session.TypingSession, error) {
	var out []*session.TypingSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) CountByUser(_ context.Context, userID string, _ session.ListFilter) (int, error) {
	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) FindByUserInRange(_ context.Context, userID string, start, end time.Time) ([]*session.TypingSession, error) {
	var out []*session.TypingSession
	for _, s := range r.sessions {
		if s.UserID == userID && !s.CreatedAt.Before(start) && !s.CreatedAt.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) ListAllByUser(_ context.Context, userID string) ([]*session.TypingSession, error) {
	return r.ListByUser(context.Background(), userID, session.ListFilter{})
}

type memTextRepo struct {
	texts map[string]*text.SampleText
}

func (r *memTextRepo) Create(_ context.Context, t *text.SampleText) error {
	r.texts[t.ID] = t
	return nil
}

func (r *memTextRepo) GetByID(_ context.Context, id string) (*text.SampleText, error) {
	t, ok := r.texts[id]
	if !ok {
		return nil, shared.ErrTextNotFound
	}
	return t, nil
}

func (r *memTextRepo) Find(_ context.Context, _ text.Filter) ([]*text.SampleText, error) {
	var out []*text.SampleText
	for _, t := range r.texts {
		out = append(out, t)
	}
	return out, nil
}

func (r *memTextRepo) FindRandom(_ context.Context, _ text.Filter) (*text.SampleText, error) {
	for _, t := range r.texts {
		return t, nil
	}
	return nil, shared.ErrNoMatchingText
}

func (r *memTextRepo) Delete(_ context.Context, _ string) error { return nil }

type memLeaderboardRepo struct {
	entries []*leaderboard.RankedEntry
}

func (r *memLeaderboardRepo) Upsert(_ context.Context, _ *leaderboard.Entry) error { return nil }

func (r *memLeaderboardRepo) Get(_ context.Context, _ string, _ leaderboard.Period, _ time.Time) (*leaderboard.Entry, error) {
	return nil, shared.ErrEntryNotFound
}

func (r *memLeaderboardRepo) Page(_ context.Context, q leaderboard.PageQuery) ([]*leaderboard.RankedEntry, error) {
	if q.Offset >= len(r.entries) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(r.entries) {
		end = len(r.entries)
	}
	return r.entries[q.Offset:end], nil
}

func (r *memLeaderboardRepo) Count(_ context.Context, _ leaderboard.Filter) (int, error) {
	return len(r.entries), nil
}

func (r *memLeaderboardRepo) CountGreater(_ context.Context, _ leaderboard.Filter, _ leaderboard.Category, _ float64) (int, error) {
	return 0, nil
}

func (r *memLeaderboardRepo) FindUserEntry(_ context.Context, _ leaderboard.Filter, userID string) (*leaderboard.RankedEntry, error) {
	for _, e := range r.entries {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, shared.ErrEntryNotFound
}

func (r *memLeaderboardRepo) ListUserEntries(_ context.Context, userID string) ([]*leaderboard.Entry, error) {
	var out []*leaderboard.Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, &e.Entry)
		}
	}
	return out, nil
}

type staticHealth struct {
	status HealthStatus
}

func (h staticHealth) Check(context.Context) HealthStatus { return h.status }

type testEnv struct {
	server   *Server
	users    *memUserRepo
	sessions *memSessionRepo
	texts    *memTextRepo
	board    *memLeaderboardRepo
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	users := &memUserRepo{users: make(map[string]*user.User)}
	sessions := &memSessionRepo{sessions: make(map[string]*session.TypingSession)}
	texts := &memTextRepo{texts: make(map[string]*text.SampleText)}
	board := &memLeaderboardRepo{}

	hasher := auth.NewPasswordHasher(4)
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	assert.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&cfg)
	}

	srv := NewServer(cfg, Dependencies{
		RegisterUserHandler:  command.NewRegisterUserHandler(users, hasher, tokens, nil),
		LoginUserHandler:     command.NewLoginUserHandler(users, hasher, tokens),
		UpdateProfileHandler: command.NewUpdateProfileHandler(users),
		RecordSessionHandler: command.NewRecordSessionHandler(sessions, nil),
		UpdateSessionHandler: command.NewUpdateSessionHandler(sessions, nil),
		DeleteSessionHandler: command.NewDeleteSessionHandler(sessions, nil),
		CreateTextHandler:    command.NewCreateTextHandler(texts),

		GetLeaderboardHandler: query.NewGetLeaderboardHandler(board, nil),
		GetUserRankHandler:    query.NewGetUserRankHandler(users, board),
		ListSessionsHandler:   query.NewListSessionsHandler(sessions),
		GetSessionHandler:     query.NewGetSessionHandler(sessions),
		GetTypingStatsHandler: query.NewGetTypingStatsHandler(sessions),
		FindTextsHandler:      query.NewFindTextsHandler(texts),
		GetTextHandler:        query.NewGetTextHandler(texts),
		GetProfileHandler:     query.NewGetProfileHandler(users),

		Tokens:        tokens,
		HealthChecker: staticHealth{status: HealthStatus{Healthy: true}},
	})

	return &testEnv{server: srv, users: users, sessions: sessions, texts: texts, board: board}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var envelope JSONResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope.Data.(map[string]interface{})
	assert.True(t, ok, "data is not an object: %s", rec.Body.String())
	return data
}

func (e *testEnv) registerAndLogin(t *testing.T) (userID, token string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "speedster",
		"email":    "speedster@example.com",
		"password": "long-enough-pass",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := dataField(t, rec)
	token = data["token"].(string)
	userID = data["user"].(map[string]interface{})["id"].(string)
	return userID, token
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint_Unhealthy(t *testing.T) {
	env := newTestEnv(t, nil)
	env.server.deps.HealthChecker = staticHealth{status: HealthStatus{Healthy: false, Message: "postgres down"}}

	rec := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "not_found", envelope.Error.Code)
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	userID, token := env.registerAndLogin(t)

	assert.NotEmpty(t, userID)
	assert.NotEmpty(t, token)
	assert.Len(t, env.users.users, 1)
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerAndLogin(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "speedster",
		"email":    "speedster@example.com",
		"password": "long-enough-pass",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", decodeEnvelope(t, rec).Error.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_MalformedJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerAndLogin(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login":    "speedster",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeEnvelope(t, rec).Error.Code)
}

func TestLogin_ByEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerAndLogin(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login":    "speedster@example.com",
		"password": "long-enough-pass",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, dataField(t, rec)["token"])
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/typing-sessions", "", map[string]interface{}{
		"text": "sample",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/typing-sessions", "garbage-token", map[string]interface{}{
		"text": "sample",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecordAndListSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.registerAndLogin(t)

	rec := env.do(t, http.MethodPost, "/api/v1/typing-sessions", token, map[string]interface{}{
		"text":             "the quick brown fox",
		"user_input":       "the quick brown fox",
		"wpm":              72.5,
		"accuracy":         97.1,
		"duration_seconds": 42,
		"session_type":     "practice",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := dataField(t, rec)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, 72.5, created["wpm"])

	rec = env.do(t, http.MethodGet, "/api/v1/typing-sessions", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	list := dataField(t, rec)
	assert.Equal(t, float64(1), list["total"])
}

func TestRecordSession_InvalidPayload(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.registerAndLogin(t)

	rec := env.do(t, http.MethodPost, "/api/v1/typing-sessions", token, map[string]interface{}{
		"text":             "sample",
		"accuracy":         150,
		"duration_seconds": 30,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSession_OtherUsersSessionHidden(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.registerAndLogin(t)

	// Чужая сессия: удаление отвечает not-found, не forbidden.
	foreign, err := session.New(session.Params{
		UserID:          "someone-else",
		Text:            "sample",
		WPM:             50,
		Accuracy:        90,
		DurationSeconds: 30,
	})
	assert.NoError(t, err)
	env.sessions.sessions[foreign.ID] = foreign

	rec := env.do(t, http.MethodDelete, "/api/v1/typing-sessions/"+foreign.ID, token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.sessions.sessions, foreign.ID)
}

func TestLeaderboardEndpoint_Anonymous(t *testing.T) {
	env := newTestEnv(t, nil)
	env.board.entries = []*leaderboard.RankedEntry{
		{
			Entry: leaderboard.Entry{
				ID: "e-1", UserID: "u-1",
				Period:       leaderboard.PeriodAllTime,
				BestWPM:      90,
				BestAccuracy: 97,
				OverallScore: leaderboard.ComputeOverallScore(90, 97),
				SessionCount: 10,
			},
			Username: "champion",
		},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/leaderboard?period=all_time&category=overall", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := dataField(t, rec)
	entries := data["entries"].([]interface{})
	assert.Len(t, entries, 1)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "champion", first["username"])
	assert.Equal(t, float64(1), first["rank"])
}

func TestLeaderboardEndpoint_InvalidPeriod(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/leaderboard?period=hourly", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSampleTexts_CreateRequiresAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/sample-texts", "", map[string]string{
		"title":   "drill",
		"content": "asdf jkl;",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, token := env.registerAndLogin(t)
	rec = env.do(t, http.MethodPost, "/api/v1/sample-texts", token, map[string]string{
		"title":   "drill",
		"content": "asdf jkl;",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRandomText_EmptyCatalog(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/sample-texts/random", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.RateLimitPerMinute = 2
	})

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", nil).Code)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.EnableCORS = true
		cfg.AllowedOrigins = []string{"https://typeflow.app"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/leaderboard", nil)
	req.Header.Set("Origin", "https://typeflow.app")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://typeflow.app", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.registerAndLogin(t)

	rec := env.do(t, http.MethodPut, "/api/v1/users/me", token, map[string]string{
		"full_name": "Dana K.",
	})

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	assert.Equal(t, "Dana K.", data["full_name"])
}

func TestUserRankSummary(t *testing.T) {
	env := newTestEnv(t, nil)
	userID, _ := env.registerAndLogin(t)

	rec := env.do(t, http.MethodGet, "/api/v1/users/"+userID+"/rank-summary", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	assert.Equal(t, "speedster", data["username"])
	categories := data["categories"].(map[string]interface{})
	assert.Len(t, categories, 4)
}

func TestReadyEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/ready", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", dataField(t, rec)["status"])
}

func TestMe_ReturnsProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	userID, token := env.registerAndLogin(t)

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	assert.Equal(t, userID, data["id"])
	assert.Equal(t, "speedster", data["username"])
	assert.Equal(t, "speedster@example.com", data["email"])
}

func TestMe_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetSessionByID(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.registerAndLogin(t)

	rec := env.do(t, http.MethodPost, "/api/v1/typing-sessions", token, map[string]interface{}{
		"text":             "the quick brown fox",
		"user_input":       "the quick brown fox",
		"wpm":              72.5,
		"accuracy":         97.1,
		"duration_seconds": 42,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := dataField(t, rec)["id"].(string)

	rec = env.do(t, http.MethodGet, "/api/v1/typing-sessions/"+id, token, nil)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, 72.5, data["wpm"])
}

func TestGetSessionByID_OtherUsersSessionHidden(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.registerAndLogin(t)

	// Чтение чужой сессии отвечает not-found, не forbidden.
	foreign, err := session.New(session.Params{
		UserID:          "someone-else",
		Text:            "sample",
		WPM:             50,
		Accuracy:        90,
		DurationSeconds: 30,
	})
	assert.NoError(t, err)
	env.sessions.sessions[foreign.ID] = foreign

	rec := env.do(t, http.MethodGet, "/api/v1/typing-sessions/"+foreign.ID, token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTextByID(t *testing.T) {
	env := newTestEnv(t, nil)

	sample, err := text.New("warmup", "cat sat on the mat", session.DifficultyBeginner, text.RowAll, false, false)
	assert.NoError(t, err)
	env.texts.texts[sample.ID] = sample

	rec := env.do(t, http.MethodGet, "/api/v1/sample-texts/"+sample.ID, "", nil)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	assert.Equal(t, "warmup", data["title"])
	assert.Equal(t, "cat sat on the mat", data["content"])
}

func TestGetTextByID_Unknown(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/sample-texts/no-such-text", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
