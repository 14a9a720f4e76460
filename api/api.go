// Package api exposes the place, recipe, comment and cache operations over
// HTTP.
package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adeilh/go-places/cache"
	"github.com/adeilh/go-places/httpx"
	"github.com/adeilh/go-places/lookup"
	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/service"
	"github.com/adeilh/go-places/store"
)

// Deps are the components the handlers serve.
type Deps struct {
	Places   *service.Places
	Recipes  *service.Recipes
	Comments *service.Comments
	// Caches maps collection names to their caches for the cache admin routes.
	Caches   map[string]*cache.Cache
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	places   *service.Places
	recipes  *service.Recipes
	comments *service.Comments
	caches   map[string]*cache.Cache
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func New(d Deps) *Handler {
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		places:   d.Places,
		recipes:  d.Recipes,
		comments: d.Comments,
		caches:   d.Caches,
		gatherer: d.Gatherer,
		logger:   d.Logger,
	}
}

// Register mounts every route on a.
func (h *Handler) Register(a *httpx.App) {
	a.GET("/", func(c httpx.Context) error {
		return c.JSON(httpx.StatusOK, map[string]any{"service": "places", "routes": a.Routes()})
	})
	a.GET("/healthz", h.healthz)
	a.GET("/metrics", httpx.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	httpx.NewRouter(a, "/places").
		GET("/all", h.allPlaces).
		GET("/get", h.getPlace).
		GET("/search", h.searchPlaces).
		GET("/id/:id", h.placeByID).
		GET("/distinct/:field", h.distinctPlaces).
		POST("/add", h.addPlace).
		POST("/add/many", h.addPlaces).
		DELETE("/delete", h.deletePlace).
		POST("/delete/many", h.deletePlaces)

	httpx.NewRouter(a, "/comments").
		GET("", h.listComments).
		POST("/add", h.addComment)

	httpx.NewRouter(a, "/recipes").
		GET("/all", h.allRecipes).
		GET("/get", h.getRecipe).
		GET("/search", h.searchRecipes).
		POST("/add", h.addRecipe).
		POST("/:id/ingredients", h.addIngredient).
		POST("/:id/instructions", h.addInstruction).
		POST("/:id/notes", h.addNote).
		DELETE("/delete", h.deleteRecipe)

	httpx.NewRouter(a, "/cache").
		GET("/keys", h.cacheKeys).
		DELETE("/keys/:key", h.deleteCacheKey)
}

func (h *Handler) healthz(c httpx.Context) error {
	return c.JSON(httpx.StatusOK, map[string]string{"status": "ok"})
}

// fail maps a domain error onto an HTTP error.
func (h *Handler) fail(c httpx.Context, err error) error {
	code := statusOf(err)
	if code >= httpx.StatusInternalError {
		h.logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return httpx.HTTPError(code, http.StatusText(code))
	}
	return httpx.HTTPError(code, err.Error())
}

var errorStatuses = []httpx.ErrorStatus{
	{Err: query.ErrInvalidQuery, Code: httpx.StatusBadRequest},
	{Err: service.ErrInvalidArgument, Code: httpx.StatusBadRequest},
	{Err: record.ErrInvalid, Code: httpx.StatusBadRequest},
	{Err: store.ErrInvalidField, Code: httpx.StatusBadRequest},
	{Err: service.ErrNotFound, Code: httpx.StatusNotFound},
	{Err: service.ErrNoMatch, Code: httpx.StatusNotFound},
	{Err: store.ErrNotFound, Code: httpx.StatusNotFound},
	{Err: store.ErrDuplicate, Code: httpx.StatusConflict},
	{Err: lookup.ErrUnavailable, Code: httpx.StatusBadGateway},
	{Err: cache.ErrUnavailable, Code: httpx.StatusServiceUnavailable},
}

func statusOf(err error) int { return httpx.StatusFor(err, errorStatuses) }

func badRequest(msg string) error { return httpx.HTTPError(httpx.StatusBadRequest, msg) }

func notFound(msg string) error { return httpx.HTTPError(httpx.StatusNotFound, msg) }

func boolParam(c httpx.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest(name + " must be a boolean")
	}
	return v, nil
}

// RequireJSON rejects write requests whose body is not declared as JSON.
// Requests without a body pass.
func RequireJSON(c httpx.Context) error {
	req := c.Request()
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil
	}
	if req.ContentLength == 0 {
		return nil
	}
	mt, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		return httpx.HTTPError(httpx.StatusUnsupportedMedia, "request body must be application/json")
	}
	return nil
}
