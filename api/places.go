package api

import (
	"strconv"

	"github.com/adeilh/go-places/httpx"
	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/service"
)

func (h *Handler) allPlaces(c httpx.Context) error {
	force, err := boolParam(c, "force")
	if err != nil {
		return err
	}
	places, err := h.places.Repository().All(c.Request().Context(), force)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, nonNil(places))
}

func (h *Handler) getPlace(c httpx.Context) error {
	exact, err := boolParam(c, "exact")
	if err != nil {
		return err
	}
	name := c.QueryParam("name")
	p, found, err := h.places.Repository().GetByName(c.Request().Context(), name, exact)
	if err != nil {
		return h.fail(c, err)
	}
	if !found {
		return notFound("no place named " + strconv.Quote(name))
	}
	return c.JSON(httpx.StatusOK, p)
}

func (h *Handler) searchPlaces(c httpx.Context) error {
	exact, err := boolParam(c, "exact")
	if err != nil {
		return err
	}
	p := query.Params{Exact: exact}
	if v := c.QueryParam("name"); v != "" {
		p.Name = query.String(v)
	}
	if v := c.QueryParam("address"); v != "" {
		p.Address = query.String(v)
	}
	if v := c.QueryParam("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return badRequest("min_rating must be a number")
		}
		p.MinRating = query.Float(f)
	}
	places, err := h.places.Repository().Search(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, nonNil(places))
}

func (h *Handler) placeByID(c httpx.Context) error {
	p, found, err := h.places.Repository().GetByIdentifier(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if !found {
		return notFound("place not found")
	}
	return c.JSON(httpx.StatusOK, p)
}

func (h *Handler) distinctPlaces(c httpx.Context) error {
	values, err := h.places.Repository().Distinct(c.Request().Context(), c.Param("field"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, nonNil(values))
}

func (h *Handler) addPlace(c httpx.Context) error {
	p, created, err := h.places.Add(c.Request().Context(), c.QueryParam("name"), c.QueryParam("location"))
	if err != nil {
		return h.fail(c, err)
	}
	if created {
		return c.JSON(httpx.StatusCreated, p)
	}
	return c.JSON(httpx.StatusOK, p)
}

type addResult struct {
	Name     string        `json:"name"`
	Location string        `json:"location"`
	Created  bool          `json:"created"`
	Place    *record.Place `json:"place,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func (h *Handler) addPlaces(c httpx.Context) error {
	var inputs []service.PlaceInput
	if err := c.Bind(&inputs); err != nil {
		return badRequest("body must be a list of {name, location}")
	}
	results := h.places.AddMany(c.Request().Context(), inputs)
	out := make([]addResult, len(results))
	for i, r := range results {
		out[i] = addResult{Name: r.Input.Name, Location: r.Input.Location, Created: r.Created}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		p := r.Place
		out[i].Place = &p
	}
	return c.JSON(httpx.StatusOK, out)
}

func (h *Handler) deletePlace(c httpx.Context) error {
	removed, err := h.places.Delete(c.Request().Context(), c.QueryParam("place_id"), c.QueryParam("name"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, map[string]any{"deleted": removed})
}

type deleteManyRequest struct {
	PlaceIDs []string `json:"place_ids"`
	Names    []string `json:"names"`
}

func (h *Handler) deletePlaces(c httpx.Context) error {
	var req deleteManyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("body must be {place_ids, names}")
	}
	if len(req.PlaceIDs) == 0 && len(req.Names) == 0 {
		return badRequest("place_ids or names are required")
	}
	deleted, failed := h.places.DeleteMany(c.Request().Context(), req.PlaceIDs, req.Names)
	return c.JSON(httpx.StatusOK, map[string][]string{
		"deleted": nonNil(deleted),
		"failed":  nonNil(failed),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
