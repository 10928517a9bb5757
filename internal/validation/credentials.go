package validation

import (
	"net/mail"
	"strings"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/request"
)

// ValidateCredentials validates a request to store Kinvo credentials.
//
// Required fields:
//   - email: Must be a valid address
//   - password: Must not be empty
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCredentials(req request.CredentialsRequest) error {
	var verr Error

	email := strings.TrimSpace(req.Email)
	if email == "" {
		verr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.add("email", "email is not a valid address")
	}

	if req.Password == "" {
		verr.add("password", "password is required")
	}

	return verr.err()
}
