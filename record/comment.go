package record

import "time"

// sortableTime keeps a fixed width so names order chronologically.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

// Comment is a note left on a place.
type Comment struct {
	ID        string    `json:"id"`
	Handle    int64     `json:"_id,omitempty"`
	PlaceID   string    `json:"place_id" validate:"required"`
	Text      string    `json:"text" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Comment) Field(name string) (any, bool) {
	switch name {
	case "id":
		return stringField(c.ID)
	case "place_id":
		return stringField(c.PlaceID)
	case "text":
		return stringField(c.Text)
	default:
		return nil, false
	}
}

// CommentSchema addresses comments in the "comments" collection. Comments are
// not searchable by name.
var CommentSchema = Schema[Comment]{
	Collection: "comments",
	ID:         func(c Comment) string { return c.ID },
	WithID: func(c Comment, id string) Comment {
		c.ID = id
		return c
	},
	Handle:     func(c Comment) int64 { return c.Handle },
	WithHandle: func(c Comment, h int64) Comment {
		c.Handle = h
		return c
	},
	Name:     func(c Comment) string { return c.CreatedAt.UTC().Format(sortableTime) },
	Field:    Comment.Field,
	Validate: func(c Comment) error { return Validate(c) },
}
