package docsql

// Bind appends a query argument and returns the placeholder addressing it.
type Bind func(arg any) string

// Dialect renders the SQL a Collection needs for a specific engine. Documents
// live in a table of (seq, id, doc) rows where doc holds the JSON encoding.
type Dialect interface {
	Name() string
	// Placeholder returns the n-th (1-based) parameter marker.
	Placeholder(n int) string
	QuoteIdent(name string) string
	// Schema returns the statements creating the table for a collection.
	Schema(table string) []string
	// DocParam wraps the placeholder for an encoded document.
	DocParam(ph string) string

	// JSON extracts the member at a dotted field path as JSON text.
	JSON(bind Bind, field string) string
	// IsString is true when the member at field is a JSON string.
	IsString(bind Bind, field string) string
	// Text extracts a string member.
	Text(bind Bind, field string) string
	// Number extracts a numeric member, or NULL when it is not a number.
	Number(bind Bind, field string) string
	// ContainsFold tests case-insensitive containment of needle in haystack.
	// needle is bound already Unicode-folded. The expression may accept rows
	// that do not contain needle but must accept every row that does.
	ContainsFold(haystack, needle string) string

	// Translate maps driver errors onto store errors.
	Translate(err error) error
}
