// Package validate turns raw path segments and query strings into typed,
// checked values before any store access happens.
package validate

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/google/uuid"
)

// canonicalKeyLen is the length of the hyphenated 8-4-4-4-12 text form.
const canonicalKeyLen = 36

// InvalidKeyError reports a key that is not a canonical UUID.
type InvalidKeyError struct {
	Input string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q", e.Input)
}

func (e *InvalidKeyError) Unwrap() error {
	return common.ErrInvalidIdentifier
}

// ParseKey accepts only the 36-character hyphenated UUID form. Hex digits
// may be upper or lower case; the returned value prints in lower case.
func ParseKey(s string) (uuid.UUID, error) {
	if len(s) != canonicalKeyLen {
		return uuid.Nil, &InvalidKeyError{Input: s}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &InvalidKeyError{Input: s}
	}
	return id, nil
}

// ParseListOptions reads limit, offset, prefix and sort from a query string.
//
// An empty limit or offset value counts as absent. A prefix parameter that is
// present but empty is kept and matches every key.
func ParseListOptions(q url.Values) (models.ListOptions, error) {
	opts := models.ListOptions{Sort: models.DefaultSort}

	if q.Has("sort") {
		sort, err := models.ParseSortOrder(q.Get("sort"))
		if err != nil {
			return opts, err
		}
		opts.Sort = sort
	}

	if v := q.Get("limit"); v != "" {
		n, err := parseNonNegative("limit", v)
		if err != nil {
			return opts, err
		}
		opts.Limit = &n
	}

	if v := q.Get("offset"); v != "" {
		n, err := parseNonNegative("offset", v)
		if err != nil {
			return opts, err
		}
		opts.Offset = n
	}

	if q.Has("prefix") {
		prefix := q.Get("prefix")
		opts.Prefix = &prefix
	}

	return opts, nil
}

func parseNonNegative(name, v string) (int64, error) {
	n, err := strconv.ParseUint(v, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got '%s'",
			common.ErrInvalidQueryParameter, name, v)
	}
	return int64(n), nil
}
