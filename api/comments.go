package api

import "github.com/adeilh/go-places/httpx"

type addCommentRequest struct {
	PlaceID string `json:"place_id"`
	Text    string `json:"text"`
}

func (h *Handler) listComments(c httpx.Context) error {
	comments, err := h.comments.ForPlace(c.Request().Context(), c.QueryParam("place_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, nonNil(comments))
}

func (h *Handler) addComment(c httpx.Context) error {
	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("body must be {place_id, text}")
	}
	comment, err := h.comments.Add(c.Request().Context(), req.PlaceID, req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusCreated, comment)
}
