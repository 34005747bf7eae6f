package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kvstore/internal/common"
)

// SortOrder is the ordering applied to list results.
type SortOrder string

const (
	SortKeyAsc      SortOrder = "key_asc"
	SortKeyDesc     SortOrder = "key_desc"
	SortCreatedAsc  SortOrder = "created_asc"
	SortCreatedDesc SortOrder = "created_desc"
	SortUpdatedAsc  SortOrder = "updated_asc"
	SortUpdatedDesc SortOrder = "updated_desc"
)

// DefaultSort applies when the request does not name an order.
const DefaultSort = SortKeyAsc

// SortOrders lists every supported order in canonical sequence.
func SortOrders() []SortOrder {
	return []SortOrder{
		SortKeyAsc, SortKeyDesc,
		SortCreatedAsc, SortCreatedDesc,
		SortUpdatedAsc, SortUpdatedDesc,
	}
}

// ParseSortOrder accepts exactly one of the six tokens. Matching is
// case-sensitive and the input is not trimmed.
func ParseSortOrder(s string) (SortOrder, error) {
	for _, o := range SortOrders() {
		if string(o) == s {
			return o, nil
		}
	}

	names := make([]string, 0, len(SortOrders()))
	for _, o := range SortOrders() {
		names = append(names, string(o))
	}
	return "", fmt.Errorf("%w: sort must be one of: %s, got '%s'",
		common.ErrInvalidQueryParameter, strings.Join(names, ", "), s)
}
