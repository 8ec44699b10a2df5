// Package memory provides in-process record stores with the same contract
// as the MySQL repositories. They back STORE_DRIVER=memory and the tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/repository"
)

// Halls is an append-only hall store.
type Halls struct {
	mu    sync.RWMutex
	byID  map[string]model.Hall
	order []string
}

// NewHalls returns an empty hall store.
func NewHalls() *Halls { return &Halls{byID: map[string]model.Hall{}} }

// Create stores h. Names are unique regardless of case, as under the
// MySQL collation.
func (s *Halls) Create(_ context.Context, h *model.Hall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if strings.EqualFold(other.Name, h.Name) {
			return repository.ErrDuplicate
		}
	}
	s.byID[h.ID] = *h
	s.order = append(s.order, h.ID)
	return nil
}

// GetByID returns a copy of the hall or ErrHallNotFound.
func (s *Halls) GetByID(_ context.Context, id string) (*model.Hall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrHallNotFound
	}
	return &h, nil
}

// List returns halls in creation order.
func (s *Halls) List(_ context.Context) ([]model.Hall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Hall, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// Movies keeps movies in insertion order.
type Movies struct {
	mu    sync.RWMutex
	byID  map[string]*model.Movie
	order []string
}

// NewMovies returns an empty movie store.
func NewMovies() *Movies { return &Movies{byID: map[string]*model.Movie{}} }

// Create stores m. Slugs are unique.
func (s *Movies) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.Slug == m.Slug {
			return repository.ErrDuplicate
		}
	}
	cp := *m
	s.byID[m.ID] = &cp
	s.order = append(s.order, m.ID)
	return nil
}

// GetByID returns a copy of the movie or ErrMovieNotFound.
func (s *Movies) GetByID(_ context.Context, id string) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

// GetBySlug returns a copy of the movie or ErrMovieNotFound.
func (s *Movies) GetBySlug(_ context.Context, slug string) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byID {
		if m.Slug == slug {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrMovieNotFound
}

// SlugExists reports whether any movie uses slug.
func (s *Movies) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byID {
		if m.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// List returns movies in creation order, optionally active ones only.
func (s *Movies) List(_ context.Context, activeOnly bool) ([]model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Movie, 0, len(s.order))
	for _, id := range s.order {
		m := s.byID[id]
		if activeOnly && !m.IsActive {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

// SetActive flips the active flag and stamps UpdatedAt.
func (s *Movies) SetActive(_ context.Context, id string, active bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return repository.ErrMovieNotFound
	}
	if m.IsActive != active {
		m.IsActive = active
		m.UpdatedAt = at
	}
	return nil
}

// Shows keeps shows sorted by start time. Movie titles are not joined on
// read; the title captured at scheduling time is kept.
type Shows struct {
	mu    sync.RWMutex
	shows []model.Show
}

// NewShows returns an empty show store.
func NewShows() *Shows { return &Shows{} }

func (s *Shows) insert(sh model.Show) {
	i := sort.Search(len(s.shows), func(i int) bool { return less(sh, s.shows[i]) })
	s.shows = append(s.shows, model.Show{})
	copy(s.shows[i+1:], s.shows[i:])
	s.shows[i] = sh
}

func less(a, b model.Show) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.Before(b.StartTime)
	}
	return strings.Compare(a.ID, b.ID) < 0
}

// Create inserts sh without an overlap check.
func (s *Shows) Create(_ context.Context, sh *model.Show) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(*sh)
	return nil
}

// CreateIfFree checks the hall schedule and inserts under one write lock.
func (s *Shows) CreateIfFree(_ context.Context, sh *model.Show) ([]model.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var overlaps []model.Show
	for _, other := range s.shows {
		if other.Hall.ID == sh.Hall.ID && other.Overlaps(sh.StartTime, sh.EndTime) {
			overlaps = append(overlaps, other)
		}
	}
	if len(overlaps) > 0 {
		return overlaps, nil
	}
	s.insert(*sh)
	return nil, nil
}

// List returns every show ordered by start time, then id.
func (s *Shows) List(_ context.Context) ([]model.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Show, len(s.shows))
	copy(out, s.shows)
	return out, nil
}

// ListByMovie returns the movie's shows ordered by start time, then id.
func (s *Shows) ListByMovie(_ context.Context, movieID string) ([]model.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Show{}
	for _, sh := range s.shows {
		if sh.MovieID == movieID {
			out = append(out, sh)
		}
	}
	return out, nil
}

// Users indexes users by id and lower-cased email.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byID: map[string]model.User{}, byEmail: map[string]string{}}
}

// Create stores u with its email lower-cased. Emails are unique.
func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := s.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	s.byID[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}

// GetByEmail looks a user up case-insensitively.
func (s *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u := s.byID[id]
	return &u, nil
}

// GetByID returns a copy of the user or ErrUserNotFound.
func (s *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}
