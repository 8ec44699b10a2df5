package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// Gateway calls the catalog API under <base>/api. It keeps no state of its
// own besides the shared Session and never retries.
type Gateway struct {
	base    string
	http    *http.Client
	session *Session
	logger  *log.Logger
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option { return func(g *Gateway) { g.http = c } }

// WithLogger sets the logger transport failures are written to.
func WithLogger(l *log.Logger) Option { return func(g *Gateway) { g.logger = l } }

// New builds a Gateway for baseURL (scheme and host, optionally a prefix).
// A nil session gets a fresh one.
func New(baseURL string, session *Session, opts ...Option) *Gateway {
	if session == nil {
		session = NewSession()
	}
	g := &Gateway{
		base:    strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: 10 * time.Second},
		session: session,
	}
	for _, o := range opts {
		o(g)
	}
	if g.logger == nil {
		g.logger = log.New("catalog-client")
	}
	return g
}

// Session returns the credential holder shared by this gateway.
func (g *Gateway) Session() *Session { return g.session }

type errorBody struct {
	Error     string       `json:"error"`
	Message   string       `json:"message"`
	Field     string       `json:"field"`
	Conflicts []model.Show `json:"conflicts"`
}

// do sends one request and decodes a 2xx body into out. fallback is the
// message used when the server gives none.
func (g *Gateway) do(ctx context.Context, method, path string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tok := g.session.Token()
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		g.logger.Errorf("%s %s: %v", method, path, err)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Status: resp.StatusCode, Code: "decode", Message: fallback}
		}
		return nil
	}

	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	msg := eb.Message
	if msg == "" {
		msg = fallback
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// only a credential we actually sent can expire
		if tok != "" {
			g.session.expire()
		}
		return &AuthError{Message: msg}
	case http.StatusBadRequest:
		return &model.ValidationError{Field: eb.Field, Message: msg}
	case http.StatusNotFound:
		return &model.NotFoundError{Message: msg}
	case http.StatusConflict:
		return &model.ConflictError{Message: msg, Shows: eb.Conflicts}
	}
	return &APIError{Status: resp.StatusCode, Code: eb.Error, Message: msg}
}

// LoginResult is the answer to a successful Login.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Login authenticates and stores the token in the session.
func (g *Gateway) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.Invalid("email", "Email and password are required.")
	}
	var res LoginResult
	err := g.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &res, "Login failed.")
	if err != nil {
		// a failed login is a form error, not an expired session
		var ae *AuthError
		if errors.As(err, &ae) {
			return nil, model.Invalid("password", ae.Message)
		}
		return nil, err
	}
	g.session.SetToken(res.Token)
	return &res, nil
}

// Logout forgets the token locally.
func (g *Gateway) Logout() { g.session.Clear() }

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ListHalls returns every hall, oldest first.
func (g *Gateway) ListHalls(ctx context.Context) ([]model.Hall, error) {
	var out []model.Hall
	if err := g.do(ctx, http.MethodGet, "/halls", nil, &out, "Failed to load halls."); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreateHall validates locally, then creates the hall.
func (g *Gateway) CreateHall(ctx context.Context, in model.HallInput) (*model.Hall, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.Hall
	if err := g.do(ctx, http.MethodPost, "/halls", in, &out, "Failed to create hall."); err != nil {
		return nil, err
	}
	return &out, nil
}

// PreviewSeatMap renders a capped preview locally; no request is sent.
func (g *Gateway) PreviewSeatMap(rows, cols int) iter.Seq[model.Seat] {
	return model.PreviewSeatMap(model.ClampPreview(rows, cols))
}

// ListAllMovies is the admin listing, regardless of status.
func (g *Gateway) ListAllMovies(ctx context.Context) ([]model.Movie, error) {
	var out []model.Movie
	if err := g.do(ctx, http.MethodGet, "/movies/admin", nil, &out, "Failed to load movies."); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// ListActiveMovies is the public listing.
func (g *Gateway) ListActiveMovies(ctx context.Context) ([]model.Movie, error) {
	var out []model.Movie
	if err := g.do(ctx, http.MethodGet, "/movies", nil, &out, "Failed to load movies."); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreateMovie validates locally, then creates the movie.
func (g *Gateway) CreateMovie(ctx context.Context, in model.MovieInput) (*model.Movie, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.Movie
	if err := g.do(ctx, http.MethodPost, "/movies", in, &out, "Failed to create movie."); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateMovie hides a movie from the public listing.
func (g *Gateway) DeactivateMovie(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Invalid("id", "Please select a movie.")
	}
	return g.do(ctx, http.MethodDelete, "/movies/"+url.PathEscape(id), nil, nil, "Failed to deactivate movie.")
}

// CreateShow validates locally, then schedules the show. Warnings from
// the scheduling policy come back on the result.
func (g *Gateway) CreateShow(ctx context.Context, in model.ShowInput) (*model.ScheduledShow, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.ScheduledShow
	if err := g.do(ctx, http.MethodPost, "/shows", in, &out, "Failed to create show."); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListShowsByMovie returns the shows of a movie ordered by start time.
func (g *Gateway) ListShowsByMovie(ctx context.Context, movieID string) ([]model.Show, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return []model.Show{}, nil
	}
	var out []model.Show
	if err := g.do(ctx, http.MethodGet, "/shows/by-movie/"+url.PathEscape(movieID), nil, &out, "Failed to load shows."); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// ListShows returns every show ordered by start time.
func (g *Gateway) ListShows(ctx context.Context) ([]model.Show, error) {
	var out []model.Show
	if err := g.do(ctx, http.MethodGet, "/shows", nil, &out, "Failed to load shows."); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}
