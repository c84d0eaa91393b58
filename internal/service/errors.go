package service

import (
	"errors"

	"github.com/spec-kit/escalation-service/internal/repository"
	apperrors "github.com/spec-kit/escalation-service/pkg/util/errorutil"
)

// mapStoreError converts repository sentinels into domain errors.
func mapStoreError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrNotPending):
		return apperrors.NewConflict(apperrors.CodeTicketNotPending, "ticket is no longer pending", details)
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.NewUnavailable(err)
	default:
		return apperrors.NewInternalError(err)
	}
}
