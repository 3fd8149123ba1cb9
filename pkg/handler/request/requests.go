package request

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Maximum accepted query length. Gene ids and names are far shorter.
const MaxQueryLength = 256

var ErrQueryTooLong = errors.New("query too long")

// Structure for querying
type GeneSearchRequest struct {
	Query string `json:"query"` // SC or KM gene id, or a fragment of one
}

// ParseGeneSearchRequest reads the query from "q", accepting "search" as the
// older parameter name. The result is trimmed and may be empty. A query longer
// than MaxQueryLength runes is refused with ErrQueryTooLong.
func ParseGeneSearchRequest(r *http.Request) (GeneSearchRequest, error) {
	values := r.URL.Query()
	q := values.Get("q")
	if q == "" {
		q = values.Get("search")
	}
	q = strings.TrimSpace(q)
	if n := utf8.RuneCountInString(q); n > MaxQueryLength {
		return GeneSearchRequest{}, fmt.Errorf("%w: %d characters, at most %d allowed", ErrQueryTooLong, n, MaxQueryLength)
	}
	return GeneSearchRequest{Query: q}, nil
}

func (r GeneSearchRequest) IsEmpty() bool {
	return r.Query == ""
}
