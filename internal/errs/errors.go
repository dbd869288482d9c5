package errs

import (
	"errors"
	"net/http"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/postgres"

	"google.golang.org/grpc/codes"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDisabled     = errors.New("feature disabled")
	ErrUnavailable  = errors.New("service unavailable")
)

// ToHTTP переводит ошибку домена/хранилища в HTTP статус.
func ToHTTP(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, postgres.ErrInvalidCursor),
		errors.Is(err, domain.ErrMalformedIntent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToGRPC: то же для gRPC.
func ToGRPC(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, domain.ErrRoomNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, postgres.ErrInvalidCursor),
		errors.Is(err, domain.ErrMalformedIntent):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrNotOwner):
		return codes.PermissionDenied
	case errors.Is(err, ErrDisabled):
		return codes.Unimplemented
	case errors.Is(err, ErrUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
