package services

import (
	"fmt"

	"github.com/dmitrijs2005/kvstore/internal/common"
)

// StoreError reports a failed store call. It matches common.ErrStore and the
// underlying driver error.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{common.ErrStore, e.Err}
}
