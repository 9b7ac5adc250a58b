// Package http implements the REST API for the TypeFlow backend.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/application/command"
	"github.com/typeflow-app/typeflow-backend/internal/application/query"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
	"github.com/typeflow-app/typeflow-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	info := map[string]interface{}{
		"name":    "TypeFlow API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/health",
			"register":    "/api/v1/auth/register",
			"login":       "/api/v1/auth/login",
			"sessions":    "/api/v1/typing-sessions",
			"texts":       "/api/v1/sample-texts",
			"leaderboard": "/api/v1/leaderboard",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// userDTO is the external representation of a user. The password hash
// never leaves the server.
type userDTO struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	FullName  string        `json:"full_name,omitempty"`
	Settings  user.Settings `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
}

type authResponse struct {
	User  userDTO `json:"user"`
	Token string  `json:"token"`
}

func toUserDTO(u *user.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Username:  string(u.Username),
		Email:     string(u.Email),
		FullName:  u.FullName,
		Settings:  u.Settings,
		CreatedAt: u.CreatedAt,
	}
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
		return
	}

	result, err := s.deps.RegisterUserHandler.Handle(r.Context(), command.RegisterUserCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(w, r, err, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		User:  toUserDTO(result.User),
		Token: result.Token,
	})
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Login == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "login and password are required")
		return
	}

	result, err := s.deps.LoginUserHandler.Handle(r.Context(), command.LoginUserCommand{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(w, r, err, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:  toUserDTO(result.User),
		Token: result.Token,
	})
}

// handleMe handles GET /api/v1/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.GetProfileHandler.Handle(r.Context(), query.GetProfileQuery{
		UserID: authenticatedUserID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// ══════════════════════════════════════════════════════════════════════════════
// TYPING SESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type recordSessionRequest struct {
	Text                string  `json:"text"`
	UserInput           string  `json:"user_input"`
	WPM                 float64 `json:"wpm"`
	Accuracy            float64 `json:"accuracy"`
	DurationSeconds     int     `json:"duration_seconds"`
	TotalCharacters     int     `json:"total_characters"`
	CorrectCharacters   int     `json:"correct_characters"`
	IncorrectCharacters int     `json:"incorrect_characters"`
	SessionType         string  `json:"session_type"`
	Difficulty          string  `json:"difficulty"`
	SampleTextID        string  `json:"sample_text_id"`
}

type updateSessionRequest struct {
	UserInput           *string  `json:"user_input"`
	WPM                 *float64 `json:"wpm"`
	Accuracy            *float64 `json:"accuracy"`
	DurationSeconds     *int     `json:"duration_seconds"`
	TotalCharacters     *int     `json:"total_characters"`
	CorrectCharacters   *int     `json:"correct_characters"`
	IncorrectCharacters *int     `json:"incorrect_characters"`
}

// handleRecordSession handles POST /api/v1/typing-sessions
func (s *Server) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	var req recordSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := s.deps.RecordSessionHandler.Handle(r.Context(), command.RecordSessionCommand{
		UserID:              authenticatedUserID(r.Context()),
		Text:                req.Text,
		UserInput:           req.UserInput,
		WPM:                 req.WPM,
		Accuracy:            req.Accuracy,
		DurationSeconds:     req.DurationSeconds,
		TotalCharacters:     req.TotalCharacters,
		CorrectCharacters:   req.CorrectCharacters,
		IncorrectCharacters: req.IncorrectCharacters,
		SessionType:         req.SessionType,
		Difficulty:          req.Difficulty,
		SampleTextID:        req.SampleTextID,
	})
	if err != nil {
		s.respondError(w, r, err, "failed to record session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         sess.ID,
		"wpm":        sess.WPM,
		"accuracy":   sess.Accuracy,
		"created_at": sess.CreatedAt,
	})
}

// handleListSessions handles GET /api/v1/typing-sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := query.ListSessionsQuery{
		UserID:      authenticatedUserID(r.Context()),
		SessionType: getQueryParam(r, "session_type", ""),
		Difficulty:  getQueryParam(r, "difficulty", ""),
		Page:        getQueryParamInt(r, "page", 1),
		Limit:       getQueryParamInt(r, "limit", 20),
	}

	result, err := s.deps.ListSessionsHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSession handles GET /api/v1/typing-sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Session ID is required")
		return
	}

	result, err := s.deps.GetSessionHandler.Handle(r.Context(), query.GetSessionQuery{
		SessionID: sessionID,
		UserID:    authenticatedUserID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleUpdateSession handles PUT /api/v1/typing-sessions/{id}
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Session ID is required")
		return
	}

	var req updateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := s.deps.UpdateSessionHandler.Handle(r.Context(), command.UpdateSessionCommand{
		SessionID:           sessionID,
		UserID:              authenticatedUserID(r.Context()),
		UserInput:           req.UserInput,
		WPM:                 req.WPM,
		Accuracy:            req.Accuracy,
		DurationSeconds:     req.DurationSeconds,
		TotalCharacters:     req.TotalCharacters,
		CorrectCharacters:   req.CorrectCharacters,
		IncorrectCharacters: req.IncorrectCharacters,
	})
	if err != nil {
		s.respondError(w, r, err, "failed to update session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         sess.ID,
		"wpm":        sess.WPM,
		"accuracy":   sess.Accuracy,
		"updated_at": sess.CreatedAt,
	})
}

// handleDeleteSession handles DELETE /api/v1/typing-sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Session ID is required")
		return
	}

	err := s.deps.DeleteSessionHandler.Handle(r.Context(), command.DeleteSessionCommand{
		SessionID: sessionID,
		UserID:    authenticatedUserID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to delete session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleTypingStats handles GET /api/v1/typing-sessions/stats
func (s *Server) handleTypingStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetTypingStatsHandler.Handle(r.Context(), query.GetTypingStatsQuery{
		UserID: authenticatedUserID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to get typing stats")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SAMPLE TEXT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createTextRequest struct {
	Title                string `json:"title"`
	Content              string `json:"content"`
	Difficulty           string `json:"difficulty"`
	KeyboardRow          string `json:"keyboard_row"`
	IncludesNumbers      bool   `json:"includes_numbers"`
	IncludesSpecialChars bool   `json:"includes_special_chars"`
}

// handleCreateText handles POST /api/v1/sample-texts
func (s *Server) handleCreateText(w http.ResponseWriter, r *http.Request) {
	var req createTextRequest
	if !decodeBody(w, r, &req) {
		return
	}

	txt, err := s.deps.CreateTextHandler.Handle(r.Context(), command.CreateTextCommand{
		Title:                req.Title,
		Content:              req.Content,
		Difficulty:           req.Difficulty,
		KeyboardRow:          req.KeyboardRow,
		IncludesNumbers:      req.IncludesNumbers,
		IncludesSpecialChars: req.IncludesSpecialChars,
	})
	if err != nil {
		s.respondError(w, r, err, "failed to create text")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":              txt.ID,
		"title":           txt.Title,
		"character_count": txt.CharacterCount,
		"word_count":      txt.WordCount,
	})
}

// handleFindTexts handles GET /api/v1/sample-texts
func (s *Server) handleFindTexts(w http.ResponseWriter, r *http.Request) {
	q := textQueryFromRequest(r)

	result, err := s.deps.FindTextsHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to find texts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"texts": result})
}

// handleRandomText handles GET /api/v1/sample-texts/random
func (s *Server) handleRandomText(w http.ResponseWriter, r *http.Request) {
	q := textQueryFromRequest(r)
	q.Random = true

	result, err := s.deps.FindTextsHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to pick a random text")
		return
	}
	if len(result) == 0 {
		writeJSONError(w, http.StatusNotFound, "not_found", "No text matches the filter")
		return
	}

	writeJSON(w, http.StatusOK, result[0])
}

// handleGetText handles GET /api/v1/sample-texts/{id}
func (s *Server) handleGetText(w http.ResponseWriter, r *http.Request) {
	textID := r.PathValue("id")
	if textID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Text ID is required")
		return
	}

	result, err := s.deps.GetTextHandler.Handle(r.Context(), query.GetTextQuery{TextID: textID})
	if err != nil {
		s.respondError(w, r, err, "failed to get text")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func textQueryFromRequest(r *http.Request) query.FindTextsQuery {
	return query.FindTextsQuery{
		Difficulty:           getQueryParam(r, "difficulty", ""),
		KeyboardRow:          getQueryParam(r, "keyboard_row", ""),
		IncludesNumbers:      getQueryParamBoolPtr(r, "includes_numbers"),
		IncludesSpecialChars: getQueryParamBoolPtr(r, "includes_special_chars"),
		MinCharacters:        getQueryParamInt(r, "min_characters", 0),
		MaxCharacters:        getQueryParamInt(r, "max_characters", 0),
		MinWords:             getQueryParamInt(r, "min_words", 0),
		MaxWords:             getQueryParamInt(r, "max_words", 0),
		Limit:                getQueryParamInt(r, "limit", 10),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{
		Period:        getQueryParam(r, "period", ""),
		Category:      getQueryParam(r, "category", ""),
		Page:          getQueryParamInt(r, "page", 1),
		Limit:         getQueryParamInt(r, "limit", 20),
		Search:        getQueryParam(r, "search", ""),
		CurrentUserID: authenticatedUserID(r.Context()),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to get leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUserRank handles GET /api/v1/users/{id}/rank-summary
func (s *Server) handleGetUserRank(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	result, err := s.deps.GetUserRankHandler.Handle(r.Context(), query.GetUserRankQuery{
		UserID: userID,
	})
	if err != nil {
		s.respondError(w, r, err, "failed to get rank summary")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type updateProfileRequest struct {
	FullName *string        `json:"full_name"`
	Email    *string        `json:"email"`
	Settings *user.Settings `json:"settings"`
}

// handleUpdateProfile handles PUT /api/v1/users/me
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.deps.UpdateProfileHandler.Handle(r.Context(), command.UpdateProfileCommand{
		UserID:   authenticatedUserID(r.Context()),
		FullName: req.FullName,
		Email:    req.Email,
		Settings: req.Settings,
	})
	if err != nil {
		s.respondError(w, r, err, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes the JSON request body, responding with 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return false
	}
	return true
}

// respondError maps a domain error to an HTTP status. Unknown errors
// become 500 and are logged with the request ID for correlation.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials or token")
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error(msg,
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}
