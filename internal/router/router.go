package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/cinema-catalog/internal/handler"
	"github.com/iliyamo/cinema-catalog/internal/middleware"
	"github.com/iliyamo/cinema-catalog/internal/model"
)

// Deps carries what the routes need. Cache and RateLimit may be no-op
// middleware when Redis is not available.
type Deps struct {
	Catalog   *handler.CatalogHandler
	Auth      *handler.AuthHandler
	JWTSecret string
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

// RegisterRoutes mounts the probes and the /api surface. Middleware is
// attached per route: public reads are rate limited and cached, admin
// routes require an admin token, and writes pass through the cache so a
// successful one invalidates cached reads.
func RegisterRoutes(e *echo.Echo, d Deps) {
	if d.Cache == nil {
		d.Cache = noop
	}
	if d.RateLimit == nil {
		d.RateLimit = noop
	}

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := middleware.JWTAuth(d.JWTSecret)
	admin := []echo.MiddlewareFunc{d.RateLimit, auth, middleware.RequireRole(model.RoleAdmin)}
	write := append(admin[:len(admin):len(admin)], d.Cache)
	public := []echo.MiddlewareFunc{d.RateLimit, d.Cache}

	api := e.Group("/api")

	api.POST("/auth/register", d.Auth.Register, d.RateLimit)
	api.POST("/auth/login", d.Auth.Login, d.RateLimit)
	api.GET("/auth/me", d.Auth.Me, d.RateLimit, auth)

	c := d.Catalog
	api.GET("/halls", c.ListHalls, admin...)
	api.POST("/halls", c.CreateHall, write...)
	api.GET("/halls/preview", c.PreviewSeats, public...)
	api.GET("/halls/:id/seats", c.HallSeats, public...)

	api.GET("/movies", c.ListActiveMovies, public...)
	api.GET("/movies/admin", c.ListAllMovies, admin...)
	api.GET("/movies/:id", c.GetMovie, public...)
	api.POST("/movies", c.CreateMovie, write...)
	api.DELETE("/movies/:id", c.DeactivateMovie, write...)

	api.GET("/shows", c.ListShows, admin...)
	api.GET("/shows/by-movie/:movieId", c.ListShowsByMovie, public...)
	api.POST("/shows", c.CreateShow, write...)
}
