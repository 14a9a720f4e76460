package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/adeilh/go-places/query"
)

// AllKey is reserved for the unfiltered record list.
const AllKey = "all"

// IDKey addresses a single record by identifier.
func IDKey(id string) string { return "id:" + id }

// NameKey addresses a single record looked up by name. Exact and fuzzy
// lookups of the same name are different entries.
func NameKey(name string, exact bool) string {
	mode := "fuzzy"
	if exact {
		mode = "exact"
	}
	return "name:" + mode + ":" + name
}

// SearchKey derives the key for a parameterized search. Parameter sets that
// differ in any supplied value produce different keys; an empty string is the
// same as an absent parameter.
func SearchKey(p query.Params) string {
	return fmt.Sprintf("search:%016x", xxhash.Sum64String(canonical(p.Normalize())))
}

func canonical(p query.Params) string {
	var b strings.Builder
	b.WriteString("name=")
	writeOptString(&b, p.Name)
	b.WriteString("|address=")
	writeOptString(&b, p.Address)
	b.WriteString("|min_rating=")
	if p.MinRating == nil {
		b.WriteByte('-')
	} else {
		b.WriteString(strconv.FormatFloat(*p.MinRating, 'g', -1, 64))
	}
	b.WriteString("|exact=")
	b.WriteString(strconv.FormatBool(p.Exact))
	return b.String()
}

func writeOptString(b *strings.Builder, s *string) {
	if s == nil {
		b.WriteByte('-')
		return
	}
	b.WriteString(strconv.Quote(*s))
}
