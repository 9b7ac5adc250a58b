package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/text"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes shared by the query handler tests. The leaderboard fake
// applies the same ordering contract as the SQL implementation: category
// value DESC, entry id ASC.
// ─────────────────────────────────────────────────────────────────────────────

type fakeLeaderboardRepo struct {
	entries []*leaderboard.RankedEntry
}

func (r *fakeLeaderboardRepo) matching(f leaderboard.Filter) []*leaderboard.RankedEntry {
	var out []*leaderboard.RankedEntry
	for _, e := range r.entries {
		if e.Period != f.Period {
			continue
		}
		if e.PeriodDate.Before(f.RangeStart) || e.PeriodDate.After(f.RangeEnd) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Username), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *fakeLeaderboardRepo) Upsert(_ context.Context, _ *leaderboard.Entry) error {
	return nil
}

func (r *fakeLeaderboardRepo) Get(_ context.Context, _ string, _ leaderboard.Period, _ time.Time) (*leaderboard.Entry, error) {
	return nil, shared.ErrEntryNotFound
}

func (r *fakeLeaderboardRepo) Page(_ context.Context, q leaderboard.PageQuery) ([]*leaderboard.RankedEntry, error) {
	rows := r.matching(q.Filter)
	sort.SliceStable(rows, func(i, j int) bool {
		vi := q.Category.OrderValue(&rows[i].Entry)
		vj := q.Category.OrderValue(&rows[j].Entry)
		if vi != vj {
			return vi > vj
		}
		return rows[i].ID < rows[j].ID
	})

	if q.Offset >= len(rows) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[q.Offset:end], nil
}

func (r *fakeLeaderboardRepo) Count(_ context.Context, f leaderboard.Filter) (int, error) {
	return len(r.matching(f)), nil
}

func (r *fakeLeaderboardRepo) CountGreater(_ context.Context, f leaderboard.Filter, category leaderboard.Category, value float64) (int, error) {
	n := 0
	for _, e := range r.matching(f) {
		if category.OrderValue(&e.Entry) > value {
			n++
		}
	}
	return n, nil
}

func (r *fakeLeaderboardRepo) FindUserEntry(_ context.Context, f leaderboard.Filter, userID string) (*leaderboard.RankedEntry, error) {
	for _, e := range r.matching(f) {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, shared.ErrEntryNotFound
}

func (r *fakeLeaderboardRepo) ListUserEntries(_ context.Context, userID string) ([]*leaderboard.Entry, error) {
	var out []*leaderboard.Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			clone := e.Entry
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	sessions []*session.TypingSession
}

func (r *fakeSessionRepo) Create(_ context.Context, s *session.TypingSession) error {
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*session.TypingSession, error) {
	for _, s := range r.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrSessionNotFound
}

func (r *fakeSessionRepo) Update(_ context.Context, _ *session.TypingSession) error {
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, _ string) error {
	return nil
}

func (r *fakeSessionRepo) byUser(userID string, filter session.ListFilter) []*session.TypingSession {
	var out []*session.TypingSession
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if filter.SessionType != "" && s.SessionType != filter.SessionType {
			continue
		}
		if filter.Difficulty != "" && s.Difficulty != filter.Difficulty {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string, filter session.ListFilter) ([]*session.TypingSession, error) {
	rows := r.byUser(userID, filter)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if filter.Offset >= len(rows) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[filter.Offset:end], nil
}

func (r *fakeSessionRepo) CountByUser(_ context.Context, userID string, filter session.ListFilter) (int, error) {
	return len(r.byUser(userID, filter)), nil
}

func (r *fakeSessionRepo) FindByUserInRange(_ context.Context, userID string, start, end time.Time) ([]*session.TypingSession, error) {
	var out []*session.TypingSession
	for _, s := range r.sessions {
		if s.UserID == userID && !s.CreatedAt.Before(start) && !s.CreatedAt.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListAllByUser(_ context.Context, userID string) ([]*session.TypingSession, error) {
	rows := r.byUser(userID, session.ListFilter{})
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows, nil
}

type fakeUserRepo struct {
	users map[string]*user.User
}

func (r *fakeUserRepo) Create(_ context.Context, _ *user.User) error { return nil }

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByLogin(_ context.Context, _ string) (*user.User, error) {
	return nil, shared.ErrUserNotFound
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ *user.User) error { return nil }

func (r *fakeUserRepo) ListIDs(_ context.Context) ([]string, error) { return nil, nil }

type fakeTextRepo struct {
	texts []*text.SampleText
}

func (r *fakeTextRepo) Create(_ context.Context, t *text.SampleText) error {
	r.texts = append(r.texts, t)
	return nil
}

func (r *fakeTextRepo) GetByID(_ context.Context, id string) (*text.SampleText, error) {
	for _, t := range r.texts {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrTextNotFound
}

func (r *fakeTextRepo) Find(_ context.Context, filter text.Filter) ([]*text.SampleText, error) {
	var out []*text.SampleText
	for _, t := range r.texts {
		if filter.Difficulty != "" && t.Difficulty != filter.Difficulty {
			continue
		}
		if filter.MinCharacters > 0 && t.CharacterCount < filter.MinCharacters {
			continue
		}
		if filter.MaxCharacters > 0 && t.CharacterCount > filter.MaxCharacters {
			continue
		}
		out = append(out, t)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTextRepo) FindRandom(ctx context.Context, filter text.Filter) (*text.SampleText, error) {
	matches, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, shared.ErrNoMatchingText
	}
	return matches[0], nil
}

func (r *fakeTextRepo) Delete(_ context.Context, _ string) error { return nil }

// fakePageCache emulates the Redis page cache with a plain map.
type fakePageCache struct {
	pages  map[PageCacheKey]*LeaderboardPageDTO
	hits   int
	misses int
	sets   int
}

func newFakePageCache() *fakePageCache {
	return &fakePageCache{pages: make(map[PageCacheKey]*LeaderboardPageDTO)}
}

func (c *fakePageCache) GetPage(_ context.Context, key PageCacheKey, dest interface{}) error {
	page, ok := c.pages[key]
	if !ok {
		c.misses++
		return ErrPageCacheMiss
	}
	c.hits++
	*dest.(*LeaderboardPageDTO) = *page
	return nil
}

func (c *fakePageCache) SetPage(_ context.Context, key PageCacheKey, page interface{}) error {
	c.sets++
	dto := *page.(*LeaderboardPageDTO)
	c.pages[key] = &dto
	return nil
}
