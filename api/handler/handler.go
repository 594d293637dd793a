package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/use-agent/pastpapers/models"
)

// Lister fetches the paper records of a listing page.
type Lister interface {
	Fetch(ctx context.Context, pageURL string) ([]models.Paper, error)
}

// Runner executes download runs one at a time.
type Runner interface {
	Run(ctx context.Context, urls []string) (*models.RunSummary, error)
	Running() bool
}

// toPaperError returns the PaperError in err's chain, or wraps err as an
// internal error.
func toPaperError(err error) *models.PaperError {
	var pe *models.PaperError
	if errors.As(err, &pe) {
		return pe
	}
	return models.NewPaperError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.PaperError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
