// Package service implements the catalog and scheduling operations behind
// the admin API: halls, movies and shows. It owns no state of its own;
// every call goes straight to the record stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-catalog/internal/metrics"
	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/queue"
	"github.com/iliyamo/cinema-catalog/internal/repository"
)

// HallStore persists halls.
type HallStore interface {
	Create(ctx context.Context, h *model.Hall) error
	GetByID(ctx context.Context, id string) (*model.Hall, error)
	List(ctx context.Context) ([]model.Hall, error)
}

// MovieStore persists movies.
type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	GetBySlug(ctx context.Context, slug string) (*model.Movie, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, activeOnly bool) ([]model.Movie, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
}

// ShowStore persists shows. CreateIfFree must check the hall schedule and
// insert atomically, returning the overlapping shows instead of writing.
type ShowStore interface {
	Create(ctx context.Context, s *model.Show) error
	CreateIfFree(ctx context.Context, s *model.Show) ([]model.Show, error)
	List(ctx context.Context) ([]model.Show, error)
	ListByMovie(ctx context.Context, movieID string) ([]model.Show, error)
}

// EventPublisher receives an event after each successful write.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CatalogEvent) error
}

// Scheduling policy values.
const (
	PolicyWarn   = "warn"
	PolicyReject = "reject"
	PolicyAllow  = "allow"
)

// SchedulePolicy decides how show creation treats inactive movies
// (warn or reject) and hall double-booking (reject or allow).
type SchedulePolicy struct {
	InactiveMovies string
	Overlap        string
}

// DefaultPolicy warns about inactive movies and rejects overlapping shows.
var DefaultPolicy = SchedulePolicy{InactiveMovies: PolicyWarn, Overlap: PolicyReject}

// InactiveMovieWarning is attached to shows scheduled for an inactive movie.
const InactiveMovieWarning = "movie is inactive; only active movies should be scheduled for booking"

// Catalog brokers catalog and scheduling requests to the record stores.
type Catalog struct {
	halls  HallStore
	movies MovieStore
	shows  ShowStore
	events EventPublisher
	policy SchedulePolicy
	logger *log.Logger
	now    func() time.Time
}

// NewCatalog wires a Catalog. events may be nil to disable publishing.
func NewCatalog(halls HallStore, movies MovieStore, shows ShowStore, events EventPublisher, policy SchedulePolicy, logger *log.Logger) *Catalog {
	if halls == nil || movies == nil || shows == nil {
		panic("nil store passed to NewCatalog")
	}
	if logger == nil {
		logger = log.New("catalog")
	}
	return &Catalog{
		halls:  halls,
		movies: movies,
		shows:  shows,
		events: events,
		policy: policy,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Catalog) publish(ctx context.Context, ev queue.CatalogEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now()
	if err := s.events.Publish(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Type, "error").Inc()
		s.logger.Warnf("publish %s %s: %v", ev.Type, ev.ID, err)
		return
	}
	metrics.EventsPublished.WithLabelValues(ev.Type, "ok").Inc()
}

// ---- Halls ----

// CreateHall validates and stores a new hall.
func (s *Catalog) CreateHall(ctx context.Context, in model.HallInput) (h *model.Hall, err error) {
	defer func() { metrics.ObserveOperation("create_hall", err) }()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	h = &model.Hall{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Rows:      in.Rows,
		Cols:      in.Cols,
		CreatedAt: s.now(),
	}
	if err := s.halls.Create(ctx, h); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &model.ConflictError{Message: "A hall with this name already exists."}
		}
		return nil, fmt.Errorf("create hall: %w", err)
	}
	s.logger.Infof("hall created id=%s name=%q %dx%d", h.ID, h.Name, h.Rows, h.Cols)
	s.publish(ctx, queue.CatalogEvent{Type: queue.HallCreated, ID: h.ID, Name: h.Name, Capacity: h.Capacity()})
	return h, nil
}

// ListHalls returns every hall, oldest first.
func (s *Catalog) ListHalls(ctx context.Context) ([]model.Hall, error) {
	halls, err := s.halls.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list halls: %w", err)
	}
	if halls == nil {
		halls = []model.Hall{}
	}
	return halls, nil
}

// GetHall returns a *model.NotFoundError for unknown ids.
func (s *Catalog) GetHall(ctx context.Context, id string) (*model.Hall, error) {
	h, err := s.halls.GetByID(ctx, id)
	if errors.Is(err, repository.ErrHallNotFound) {
		return nil, &model.NotFoundError{Resource: "hall", ID: id, Message: "Hall not found."}
	}
	if err != nil {
		return nil, fmt.Errorf("get hall: %w", err)
	}
	return h, nil
}

// HallSeatMap returns the hall with its full seat grid. Rows stored
// outside the accepted geometry are refused rather than materialised.
func (s *Catalog) HallSeatMap(ctx context.Context, id string) (*model.Hall, []model.SeatRow, error) {
	h, err := s.GetHall(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := model.CheckGeometry(h.Rows, h.Cols); err != nil {
		return nil, nil, fmt.Errorf("hall %s has unsupported geometry %dx%d: %w", h.ID, h.Rows, h.Cols, err)
	}
	return h, model.SeatGrid(h.Rows, h.Cols), nil
}

// ---- Movies ----

// CreateMovie trims and validates the input, derives a unique slug and
// stores the movie. IsActive defaults to true.
func (s *Catalog) CreateMovie(ctx context.Context, in model.MovieInput) (m *model.Movie, err error) {
	defer func() { metrics.ObserveOperation("create_movie", err) }()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m = &model.Movie{}
	if err := copier.Copy(m, &in); err != nil {
		return nil, fmt.Errorf("copy movie input: %w", err)
	}
	m.ID = uuid.NewString()
	m.IsActive = in.Active()
	m.CreatedAt = s.now()
	m.UpdatedAt = m.CreatedAt
	if m.Slug, err = s.uniqueSlug(ctx, m.Title); err != nil {
		return nil, err
	}
	if err := s.movies.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &model.ConflictError{Message: "A movie with this title was just created. Please retry."}
		}
		return nil, fmt.Errorf("create movie: %w", err)
	}
	s.logger.Infof("movie created id=%s slug=%s active=%t", m.ID, m.Slug, m.IsActive)
	s.publish(ctx, queue.CatalogEvent{Type: queue.MovieCreated, ID: m.ID, Name: m.Title})
	return m, nil
}

// uniqueSlug slugs the title and appends -1, -2, ... until unused.
func (s *Catalog) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "movie"
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.movies.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// GetMovie looks a movie up by id, falling back to its slug.
func (s *Catalog) GetMovie(ctx context.Context, ref string) (*model.Movie, error) {
	m, err := s.movies.GetByID(ctx, ref)
	if errors.Is(err, repository.ErrMovieNotFound) {
		m, err = s.movies.GetBySlug(ctx, ref)
	}
	if errors.Is(err, repository.ErrMovieNotFound) {
		return nil, &model.NotFoundError{Resource: "movie", ID: ref, Message: "Movie not found."}
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return m, nil
}

// ListMovies lists movies in the given scope, oldest first.
func (s *Catalog) ListMovies(ctx context.Context, scope model.MovieScope) ([]model.Movie, error) {
	movies, err := s.movies.List(ctx, scope == model.ScopeActive)
	if err != nil {
		return nil, fmt.Errorf("list %s movies: %w", scope, err)
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	return movies, nil
}

// ListAllMovies is the admin listing, regardless of status.
func (s *Catalog) ListAllMovies(ctx context.Context) ([]model.Movie, error) {
	return s.ListMovies(ctx, model.ScopeAll)
}

// ListActiveMovies is the public listing.
func (s *Catalog) ListActiveMovies(ctx context.Context) ([]model.Movie, error) {
	return s.ListMovies(ctx, model.ScopeActive)
}

// DeactivateMovie soft-deletes a movie. Calling it again is a no-op.
func (s *Catalog) DeactivateMovie(ctx context.Context, id string) (err error) {
	defer func() { metrics.ObserveOperation("deactivate_movie", err) }()

	m, err := s.GetMovie(ctx, id)
	if err != nil {
		return err
	}
	if !m.IsActive {
		return nil
	}
	if err := s.movies.SetActive(ctx, m.ID, false, s.now()); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return &model.NotFoundError{Resource: "movie", ID: id, Message: "Movie not found."}
		}
		return fmt.Errorf("deactivate movie: %w", err)
	}
	s.logger.Infof("movie deactivated id=%s", m.ID)
	s.publish(ctx, queue.CatalogEvent{Type: queue.MovieDeactivated, ID: m.ID, Name: m.Title})
	return nil
}

// ---- Shows ----

// CreateShow schedules a movie in a hall. The movie and hall must exist.
// Inactive movies and hall double-booking are handled per SchedulePolicy.
func (s *Catalog) CreateShow(ctx context.Context, in model.ShowInput) (out *model.ScheduledShow, err error) {
	defer func() { metrics.ObserveOperation("create_show", err) }()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	start, _ := in.Start()

	movie, err := s.movies.GetByID(ctx, in.MovieID)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return nil, &model.NotFoundError{Resource: "movie", ID: in.MovieID, Message: "Selected movie does not exist."}
	}
	if err != nil {
		return nil, fmt.Errorf("load movie: %w", err)
	}
	hall, err := s.halls.GetByID(ctx, in.HallID)
	if errors.Is(err, repository.ErrHallNotFound) {
		return nil, &model.NotFoundError{Resource: "hall", ID: in.HallID, Message: "Selected hall does not exist."}
	}
	if err != nil {
		return nil, fmt.Errorf("load hall: %w", err)
	}

	var warnings []string
	if !movie.IsActive {
		if s.policy.InactiveMovies == PolicyReject {
			return nil, model.Invalid("movieId", "Only active movies can be scheduled.")
		}
		warnings = append(warnings, InactiveMovieWarning)
	}

	show := model.Show{
		ID:         uuid.NewString(),
		MovieID:    movie.ID,
		MovieTitle: movie.Title,
		Hall:       model.HallRef{ID: hall.ID, Name: hall.Name, Rows: hall.Rows, Cols: hall.Cols},
		StartTime:  start,
		EndTime:    start.Add(movie.Runtime()),
		Price:      model.NewPrice(in.Price.Round(2)),
		CreatedAt:  s.now(),
	}
	if s.policy.Overlap == PolicyAllow {
		err = s.shows.Create(ctx, &show)
	} else {
		var overlaps []model.Show
		overlaps, err = s.shows.CreateIfFree(ctx, &show)
		if err == nil && len(overlaps) > 0 {
			return nil, &model.ConflictError{Message: "Show time overlaps with an existing show in this hall.", Shows: overlaps}
		}
	}
	if errors.Is(err, repository.ErrHallNotFound) {
		return nil, &model.NotFoundError{Resource: "hall", ID: in.HallID, Message: "Selected hall does not exist."}
	}
	if err != nil {
		return nil, fmt.Errorf("create show: %w", err)
	}

	s.logger.Infof("show scheduled id=%s movie=%s hall=%s start=%s", show.ID, show.MovieID, show.Hall.ID, show.StartTime.Format(time.RFC3339))
	s.publish(ctx, queue.CatalogEvent{
		Type:     queue.ShowScheduled,
		ID:       show.ID,
		Name:     movie.Title,
		MovieID:  movie.ID,
		HallID:   hall.ID,
		HallName: hall.Name,
		StartsAt: show.StartTime.Format(time.RFC3339),
		Price:    show.Price.String(),
		Warnings: warnings,
	})
	return &model.ScheduledShow{Show: show, Warnings: warnings}, nil
}

// ListShows returns every show ordered by start time.
func (s *Catalog) ListShows(ctx context.Context) ([]model.Show, error) {
	shows, err := s.shows.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	if shows == nil {
		shows = []model.Show{}
	}
	return shows, nil
}

// ListShowsByMovie returns the shows of one movie ordered by start time.
// Unknown movies have no shows.
func (s *Catalog) ListShowsByMovie(ctx context.Context, movieID string) ([]model.Show, error) {
	shows, err := s.shows.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("list shows by movie: %w", err)
	}
	if shows == nil {
		shows = []model.Show{}
	}
	return shows, nil
}
