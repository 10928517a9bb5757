package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
)

var _ kinvo.CredentialsProvider = (*CredentialService)(nil)

// CredentialService stores the Kinvo credentials with the password encrypted as a
// fernet token, and serves them to the Kinvo client.
//
// Stored credentials take precedence over the configured fallback.
type CredentialService struct {
	credentialRepo *repository.CredentialRepository
	key            *fernet.Key
	fallback       kinvo.Credentials
	now            func() time.Time
}

// NewCredentialService creates a new CredentialService.
//
// Parameters:
//   - credentialRepo: Storage for the encrypted credentials
//   - encodedKey: A base64 fernet key; empty disables storing credentials
//   - fallback: Credentials used when none are stored (may be empty)
//
// Returns an error if encodedKey is set but is not a valid fernet key.
func NewCredentialService(credentialRepo *repository.CredentialRepository, encodedKey string, fallback kinvo.Credentials) (*CredentialService, error) {
	s := &CredentialService{
		credentialRepo: credentialRepo,
		fallback:       fallback,
		now:            time.Now,
	}
	if encodedKey != "" {
		key, err := fernet.DecodeKey(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("decode credential key: %w", err)
		}
		s.key = key
	}
	return s, nil
}

// Save encrypts and stores the credentials, replacing any stored before.
func (s *CredentialService) Save(ctx context.Context, creds kinvo.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return apperrors.ErrInvalidCredentials
	}
	if s.key == nil {
		return apperrors.ErrCredentialKeyMissing
	}

	token, err := fernet.EncryptAndSign([]byte(creds.Password), s.key)
	if err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}

	return s.credentialRepo.SaveCredential(ctx, repository.StoredCredential{
		Email:         creds.Email,
		PasswordToken: string(token),
		UpdatedAt:     s.now().UTC(),
	})
}

// Load returns the stored credentials.
// Returns apperrors.ErrCredentialsNotFound if none are stored.
func (s *CredentialService) Load(ctx context.Context) (kinvo.Credentials, error) {
	stored, err := s.credentialRepo.GetCredential(ctx)
	if err != nil {
		return kinvo.Credentials{}, err
	}
	if s.key == nil {
		return kinvo.Credentials{}, fmt.Errorf("stored credentials cannot be read: %w", apperrors.ErrCredentialKeyMissing)
	}

	// ttl 0: tokens never expire
	password := fernet.VerifyAndDecrypt([]byte(stored.PasswordToken), 0, []*fernet.Key{s.key})
	if password == nil {
		return kinvo.Credentials{}, errors.New("stored password cannot be decrypted with the configured key")
	}

	return kinvo.Credentials{Email: stored.Email, Password: string(password)}, nil
}

// Delete removes the stored credentials. The configured fallback, if any, applies again.
func (s *CredentialService) Delete(ctx context.Context) error {
	return s.credentialRepo.DeleteCredential(ctx)
}

// Credentials returns the stored credentials, or the configured ones when none
// are stored. Returns apperrors.ErrCredentialsNotFound when neither exists.
func (s *CredentialService) Credentials(ctx context.Context) (kinvo.Credentials, error) {
	creds, err := s.Load(ctx)
	if err == nil {
		return creds, nil
	}
	if !errors.Is(err, apperrors.ErrCredentialsNotFound) {
		return kinvo.Credentials{}, err
	}
	if s.fallback.Email == "" || s.fallback.Password == "" {
		return kinvo.Credentials{}, apperrors.ErrCredentialsNotFound
	}
	return s.fallback, nil
}
