package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
)

// ParsePortfolioID parses a Kinvo portfolio ID, which must be a positive integer.
func ParsePortfolioID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidPortfolioID, id)
	}
	return n, nil
}
