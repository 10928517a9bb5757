package kinvo

import (
	"fmt"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
)

// SourceError is returned when Kinvo answers with success=false or an
// unexpected HTTP status.
type SourceError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *SourceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("kinvo %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("kinvo %s: %s", e.Endpoint, e.Message)
}

func (e *SourceError) Unwrap() error {
	return apperrors.ErrSourceFailure
}
