package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-catalog/internal/handler"
	"github.com/iliyamo/cinema-catalog/internal/repository/memory"
	"github.com/iliyamo/cinema-catalog/internal/router"
	"github.com/iliyamo/cinema-catalog/internal/service"
)

type api struct {
	t     *testing.T
	e     *echo.Echo
	admin string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	catalog := service.NewCatalog(memory.NewHalls(), memory.NewMovies(), memory.NewShows(), nil, service.DefaultPolicy, nil)
	accounts := service.NewAccounts(memory.NewUsers(), "secret", 60, bcrypt.MinCost, nil)
	require.NoError(t, accounts.EnsureAdmin(context.Background(), "admin@example.com", "adminpass"))

	e := echo.New()
	router.RegisterRoutes(e, router.Deps{
		Catalog:   handler.NewCatalogHandler(catalog),
		Auth:      handler.NewAuthHandler(accounts),
		JWTSecret: "secret",
	})
	a := &api{t: t, e: e}

	rec := a.do(http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"adminpass"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	a.admin = s.Token
	return a
}

func (a *api) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHallEndpoints(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/halls", `{"name":"Hall 1","rows":10,"cols":12}`, a.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	hall := decode[map[string]any](t, rec)
	assert.EqualValues(t, 120, hall["capacity"])
	id := hall["_id"].(string)

	rec = a.do(http.MethodPost, "/api/halls", `{"name":"","rows":10,"cols":12}`, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "Hall name is required.", e.Message)
	assert.Equal(t, "name", e.Field)

	rec = a.do(http.MethodPost, "/api/halls", `{"name":"Hall 1","rows":1,"cols":1}`, a.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/api/halls", `{"name":`, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body.", decode[handler.ErrorResponse](t, rec).Message)

	rec = a.do(http.MethodGet, "/api/halls", "", a.admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = a.do(http.MethodGet, "/api/halls/"+id+"/seats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	seats := decode[struct {
		Capacity int `json:"capacity"`
		SeatRows []struct {
			Label string `json:"label"`
			Seats []struct {
				Label string `json:"label"`
			} `json:"seats"`
		} `json:"seatRows"`
	}](t, rec)
	assert.Equal(t, 120, seats.Capacity)
	require.Len(t, seats.SeatRows, 10)
	assert.Equal(t, "J12", seats.SeatRows[9].Seats[11].Label)

	rec = a.do(http.MethodGet, "/api/halls/"+id+"/seats?row=c", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	one := decode[struct {
		SeatRows []struct {
			Label string `json:"label"`
		} `json:"seatRows"`
	}](t, rec)
	require.Len(t, one.SeatRows, 1)
	assert.Equal(t, "C", one.SeatRows[0].Label)

	for _, bad := range []string{"K", "A1"} {
		rec = a.do(http.MethodGet, "/api/halls/"+id+"/seats?row="+bad, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}

	rec = a.do(http.MethodGet, "/api/halls/missing/seats", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, "/api/halls", `{"name":"Huge","rows":4294967296,"cols":4294967296}`, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rows", decode[handler.ErrorResponse](t, rec).Field)
}

func TestHallAuth(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/halls", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/halls", `{"name":"x","rows":1,"cols":1}`, "junk").Code)

	rec := a.do(http.MethodPost, "/api/auth/register", `{"name":"Sam","email":"sam@example.com","password":"hunter22"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, "/api/auth/login", `{"email":"sam@example.com","password":"hunter22"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[map[string]any](t, rec)["token"].(string)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/halls", "", token).Code)
	rec = a.do(http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "sam@example.com", me["email"])
	assert.NotContains(t, me, "passwordHash")

	rec = a.do(http.MethodPost, "/api/auth/login", `{"email":"sam@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPreviewSeats(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/halls/preview?rows=30&cols=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[struct {
		Rows     int `json:"rows"`
		Cols     int `json:"cols"`
		Capacity int `json:"capacity"`
		SeatRows []struct {
			Label string `json:"label"`
		} `json:"seatRows"`
	}](t, rec)
	assert.Equal(t, 20, p.Rows)
	assert.Equal(t, 5, p.Cols)
	assert.Equal(t, 150, p.Capacity)
	assert.Len(t, p.SeatRows, 20)
	assert.Equal(t, "T", p.SeatRows[19].Label)

	rec = a.do(http.MethodGet, "/api/halls/preview?rows=0&cols=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seatRows":[]`)

	rec = a.do(http.MethodGet, "/api/halls/preview?rows=x&cols=5", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/halls/preview?rows=4294967296&cols=4294967296", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rows must be at most 702.")

	rec = a.do(http.MethodGet, "/api/halls/preview?rows=702&cols=500", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"capacity":351000`)
}

func TestMovieEndpoints(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/movies", `{"title":"Dune","genre":"Sci-Fi","durationMins":155}`, a.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	movie := decode[map[string]any](t, rec)
	id := movie["_id"].(string)
	assert.Equal(t, "dune", movie["slug"])
	assert.Equal(t, true, movie["isActive"])

	rec = a.do(http.MethodPost, "/api/movies", `{"title":"Bad","durationMins":0}`, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duration must be a positive number (example: 120).", decode[handler.ErrorResponse](t, rec).Message)

	rec = a.do(http.MethodGet, "/api/movies/dune", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodDelete, "/api/movies/"+id, "", a.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Movie deactivated.", decode[map[string]any](t, rec)["message"])
	rec = a.do(http.MethodDelete, "/api/movies/"+id, "", a.admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/api/movies", "", "")
	assert.Equal(t, "[]\n", rec.Body.String())
	rec = a.do(http.MethodGet, "/api/movies/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/api/movies/admin", "", a.admin)
	all := decode[[]map[string]any](t, rec)
	require.Len(t, all, 1)
	assert.Equal(t, false, all[0]["isActive"])

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/movies/missing", "", a.admin).Code)
}

func TestShowEndpoints(t *testing.T) {
	a := newAPI(t)
	hall := decode[map[string]any](t, a.do(http.MethodPost, "/api/halls", `{"name":"Hall 1","rows":10,"cols":12}`, a.admin))
	movie := decode[map[string]any](t, a.do(http.MethodPost, "/api/movies", `{"title":"Dune","durationMins":155}`, a.admin))
	hallID, movieID := hall["_id"].(string), movie["_id"].(string)

	body := `{"movieId":"` + movieID + `","hallId":"` + hallID + `","startTime":"2025-01-01T18:00:00Z","price":1200}`
	rec := a.do(http.MethodPost, "/api/shows", body, a.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	show := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1200, show["price"])
	assert.Equal(t, "2025-01-01T20:35:00Z", show["endTime"])
	assert.Equal(t, "Hall 1", show["hallId"].(map[string]any)["name"])
	assert.NotContains(t, show, "warnings")

	rec = a.do(http.MethodPost, "/api/shows", body, a.admin)
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode[handler.ErrorResponse](t, rec)
	require.Len(t, conflict.Conflicts, 1)

	missing := `{"movieId":"nope","hallId":"` + hallID + `","startTime":"2025-01-02T18:00:00Z","price":10}`
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/shows", missing, a.admin).Code)

	rec = a.do(http.MethodPost, "/api/shows", `{"hallId":"`+hallID+`","startTime":"2025-01-02T18:00:00Z","price":10}`, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please select a movie.", decode[handler.ErrorResponse](t, rec).Message)

	rec = a.do(http.MethodGet, "/api/shows/by-movie/"+movieID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = a.do(http.MethodGet, "/api/shows/by-movie/unknown", "", "")
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = a.do(http.MethodGet, "/api/shows", "", a.admin)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}
