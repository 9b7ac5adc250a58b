package command

import (
	"context"
	"fmt"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/text"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes shared by the command handler tests.
// ─────────────────────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions map[string]*session.TypingSession
	findErr  error
}

func newFakeSessionRepo(sessions ...*session.TypingSession) *fakeSessionRepo {
	r := &fakeSessionRepo{sessions: make(map[string]*session.TypingSession)}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *fakeSessionRepo) Create(_ context.Context, s *session.TypingSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*session.TypingSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *session.TypingSession) error {
	if _, ok := r.sessions[s.ID]; !ok {
		return shared.ErrSessionNotFound
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.sessions[id]; !ok {
		return shared.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string, _ session.ListFilter) ([]*session.TypingSession, error) {
	var out []*session.TypingSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) CountByUser(_ context.Context, userID string, _ session.ListFilter) (int, error) {
	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) FindByUserInRange(_ context.Context, userID string, start, end time.Time) ([]*session.TypingSession, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*session.TypingSession
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if s.CreatedAt.Before(start) || s.CreatedAt.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSessionRepo) ListAllByUser(_ context.Context, userID string) ([]*session.TypingSession, error) {
	var out []*session.TypingSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeLeaderboardRepo struct {
	entries   map[string]*leaderboard.Entry
	upsertErr error
}

func newFakeLeaderboardRepo() *fakeLeaderboardRepo {
	return &fakeLeaderboardRepo{entries: make(map[string]*leaderboard.Entry)}
}

func entryKey(userID string, period leaderboard.Period, periodDate time.Time) string {
	return fmt.Sprintf("%s|%s|%s", userID, period, periodDate.Format("2006-01-02"))
}

func (r *fakeLeaderboardRepo) Upsert(_ context.Context, e *leaderboard.Entry) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	clone := *e
	r.entries[entryKey(e.UserID, e.Period, e.PeriodDate)] = &clone
	return nil
}

func (r *fakeLeaderboardRepo) Get(_ context.Context, userID string, period leaderboard.Period, periodDate time.Time) (*leaderboard.Entry, error) {
	e, ok := r.entries[entryKey(userID, period, periodDate)]
	if !ok {
		return nil, shared.ErrEntryNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *fakeLeaderboardRepo) Page(_ context.Context, _ leaderboard.PageQuery) ([]*leaderboard.RankedEntry, error) {
	return nil, nil
}

func (r *fakeLeaderboardRepo) Count(_ context.Context, _ leaderboard.Filter) (int, error) {
	return len(r.entries), nil
}

func (r *fakeLeaderboardRepo) CountGreater(_ context.Context, _ leaderboard.Filter, _ leaderboard.Category, _ float64) (int, error) {
	return 0, nil
}

func (r *fakeLeaderboardRepo) FindUserEntry(_ context.Context, _ leaderboard.Filter, _ string) (*leaderboard.RankedEntry, error) {
	return nil, shared.ErrEntryNotFound
}

func (r *fakeLeaderboardRepo) ListUserEntries(_ context.Context, userID string) ([]*leaderboard.Entry, error) {
	var out []*leaderboard.Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return shared.ErrUserAlreadyExists
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByLogin(_ context.Context, login string) (*user.User, error) {
	for _, u := range r.users {
		if u.Username.String() == login || u.Email.String() == login {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, u := range r.users {
		if u.Username.String() == username || u.Email.String() == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return shared.ErrUserNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) ListIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeTextRepo struct {
	texts map[string]*text.SampleText
}

func newFakeTextRepo() *fakeTextRepo {
	return &fakeTextRepo{texts: make(map[string]*text.SampleText)}
}

func (r *fakeTextRepo) Create(_ context.Context, t *text.SampleText) error {
	r.texts[t.ID] = t
	return nil
}

func (r *fakeTextRepo) GetByID(_ context.Context, id string) (*text.SampleText, error) {
	t, ok := r.texts[id]
	if !ok {
		return nil, shared.ErrTextNotFound
	}
	return t, nil
}

func (r *fakeTextRepo) Find(_ context.Context, _ text.Filter) ([]*text.SampleText, error) {
	out := make([]*text.SampleText, 0, len(r.texts))
	for _, t := range r.texts {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTextRepo) FindRandom(_ context.Context, _ text.Filter) (*text.SampleText, error) {
	for _, t := range r.texts {
		return t, nil
	}
	return nil, shared.ErrNoMatchingText
}

func (r *fakeTextRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.texts[id]; !ok {
		return shared.ErrTextNotFound
	}
	delete(r.texts, id)
	return nil
}

type fakePublisher struct {
	events     []shared.Event
	publishErr error
}

func (p *fakePublisher) Publish(event shared.Event) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) publishedTypes() []shared.EventType {
	types := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Verify(hash, password string) error {
	if hash != "hashed:"+password {
		return shared.ErrInvalidCredentials
	}
	return nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) Issue(userID, _ string) (string, error) {
	return "token-" + userID, nil
}
