package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/server/services"
	"github.com/dmitrijs2005/kvstore/internal/server/validate"
	"github.com/google/uuid"
)

const exampleKey = "550e8400-e29b-41d4-a716-446655440000"

// keyNotFoundError carries the key for the 404 message.
type keyNotFoundError struct {
	id uuid.UUID
}

func (e *keyNotFoundError) Error() string { return "key not found: " + e.id.String() }
func (e *keyNotFoundError) Unwrap() error { return common.ErrorNotFound }

var (
	errSnapshotsDisabled = errors.New("snapshots are not enabled")
	errSnapshotFailed    = errors.New("snapshot export failed")
)

// detail strips the sentinel prefix added by fmt.Errorf("%w: ...").
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

// errorStatus maps an error to exactly one status code and client message.
func errorStatus(err error) (int, string) {
	var (
		badKey   *validate.InvalidKeyError
		missing  *keyNotFoundError
		store    *services.StoreError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &badKey):
		return http.StatusBadRequest, fmt.Sprintf(
			"Invalid UUID format: expected format like '%s', got '%s'", exampleKey, badKey.Input)
	case errors.As(err, &missing):
		return http.StatusNotFound, "Key not found: " + missing.id.String()
	case errors.Is(err, errSnapshotsDisabled):
		return http.StatusNotFound, "Snapshots are not enabled"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf(
			"Request body too large: limit is %d bytes", tooLarge.Limit)
	case errors.Is(err, common.ErrMalformedBody):
		return http.StatusBadRequest, "JSON parse error: " + detail(err, common.ErrMalformedBody)
	case errors.Is(err, common.ErrInvalidQueryParameter):
		return http.StatusBadRequest, "Invalid query parameter: " + detail(err, common.ErrInvalidQueryParameter)
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Unauthorized: " + detail(err, common.ErrorUnauthorized)
	case errors.As(err, &store):
		return http.StatusInternalServerError, "Database error: " + store.Err.Error()
	case errors.Is(err, errSnapshotFailed):
		return http.StatusInternalServerError, "Snapshot export failed: " + detail(err, errSnapshotFailed)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
