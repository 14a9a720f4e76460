package api

import (
	"github.com/adeilh/go-places/httpx"
	"github.com/adeilh/go-places/record"
)

func (h *Handler) allRecipes(c httpx.Context) error {
	recipes, err := h.recipes.All(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, nonNil(recipes))
}

func (h *Handler) getRecipe(c httpx.Context) error {
	r, found, err := h.recipes.Get(c.Request().Context(), c.QueryParam("recipe_id"))
	if err != nil {
		return h.fail(c, err)
	}
	if !found {
		return notFound("recipe not found")
	}
	return c.JSON(httpx.StatusOK, r)
}

func (h *Handler) searchRecipes(c httpx.Context) error {
	recipes, err := h.recipes.Search(c.Request().Context(), c.QueryParam("name"), c.QueryParam("source"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, nonNil(recipes))
}

func (h *Handler) addRecipe(c httpx.Context) error {
	var r record.Recipe
	if err := c.Bind(&r); err != nil {
		return badRequest("invalid recipe body")
	}
	stored, err := h.recipes.Add(c.Request().Context(), r)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusCreated, stored)
}

func (h *Handler) addIngredient(c httpx.Context) error {
	var in record.Ingredient
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid ingredient body")
	}
	r, err := h.recipes.AddIngredient(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, r)
}

func (h *Handler) addInstruction(c httpx.Context) error {
	var in record.Instruction
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid instruction body")
	}
	r, err := h.recipes.AddInstruction(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, r)
}

func (h *Handler) addNote(c httpx.Context) error {
	var n record.Note
	if err := c.Bind(&n); err != nil {
		return badRequest("invalid note body")
	}
	r, err := h.recipes.AddNote(c.Request().Context(), c.Param("id"), n)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, r)
}

func (h *Handler) deleteRecipe(c httpx.Context) error {
	if err := h.recipes.Delete(c.Request().Context(), c.QueryParam("recipe_id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(httpx.StatusNoContent)
}
