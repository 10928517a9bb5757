package request

// CredentialsRequest represents the request body for storing Kinvo credentials
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
