package api

import (
	"net/url"
	"sort"

	"github.com/adeilh/go-places/cache"
	"github.com/adeilh/go-places/httpx"
	"github.com/adeilh/go-places/record"
)

func (h *Handler) cacheFor(c httpx.Context) (*cache.Cache, error) {
	name := c.QueryParam("collection")
	if name == "" {
		name = record.PlaceSchema.Collection
	}
	cc, ok := h.caches[name]
	if !ok || cc == nil {
		return nil, badRequest("no cache for collection " + name)
	}
	return cc, nil
}

func (h *Handler) cacheKeys(c httpx.Context) error {
	cc, err := h.cacheFor(c)
	if err != nil {
		return err
	}
	pattern := c.QueryParam("pattern")
	if pattern == "" {
		pattern = "*"
	}
	keys, err := cc.Keys(c.Request().Context(), pattern)
	if err != nil {
		return h.fail(c, err)
	}
	sort.Strings(keys)
	return c.JSON(httpx.StatusOK, map[string]any{
		"collection": cc.Namespace(),
		"keys":       nonNil(keys),
	})
}

func (h *Handler) deleteCacheKey(c httpx.Context) error {
	cc, err := h.cacheFor(c)
	if err != nil {
		return err
	}
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return badRequest("malformed key")
	}
	if err := cc.Delete(c.Request().Context(), key); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(httpx.StatusNoContent)
}
