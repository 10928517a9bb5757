package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/testutil"
)

// TestCredentialService tests storing and serving Kinvo credentials.
//
// WHY: The Kinvo password is the most sensitive value the service holds. It must
// never reach the database in plain text, and the client must keep working with
// the configured credentials when nothing is stored.
func TestCredentialService(t *testing.T) {
	ctx := context.Background()
	fallback := kinvo.Credentials{Email: "env@example.com", Password: "from-env"}

	t.Run("saves an encrypted password and loads it back", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestCredentialService(t, db, kinvo.Credentials{})

		// Execute
		err := svc.Save(ctx, kinvo.Credentials{Email: "  user@example.com ", Password: "s3cret"})

		// Assert
		if err != nil {
			t.Fatalf("Save() returned unexpected error: %v", err)
		}

		stored, err := repository.NewCredentialRepository(db).GetCredential(ctx)
		if err != nil {
			t.Fatalf("GetCredential() returned unexpected error: %v", err)
		}
		if stored.Email != "user@example.com" {
			t.Errorf("Expected trimmed email, got %q", stored.Email)
		}
		if strings.Contains(stored.PasswordToken, "s3cret") {
			t.Error("Expected password to be stored encrypted")
		}

		creds, err := svc.Load(ctx)
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		if creds.Password != "s3cret" {
			t.Errorf("Expected decrypted password, got %q", creds.Password)
		}
	})

	t.Run("saving twice replaces the credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestCredentialService(t, db, kinvo.Credentials{})

		svc.Save(ctx, kinvo.Credentials{Email: "a@example.com", Password: "one"}) //nolint:errcheck
		if err := svc.Save(ctx, kinvo.Credentials{Email: "b@example.com", Password: "two"}); err != nil {
			t.Fatalf("Save() returned unexpected error: %v", err)
		}

		if n := testutil.CountRows(t, db, "kinvo_credential"); n != 1 {
			t.Errorf("Expected 1 stored credential, got %d", n)
		}
		creds, err := svc.Credentials(ctx)
		if err != nil {
			t.Fatalf("Credentials() returned unexpected error: %v", err)
		}
		if creds.Email != "b@example.com" {
			t.Errorf("Expected latest credentials, got %q", creds.Email)
		}
	})

	t.Run("rejects incomplete credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestCredentialService(t, db, kinvo.Credentials{})

		for _, creds := range []kinvo.Credentials{{Email: " ", Password: "x"}, {Email: "a@example.com"}} {
			if err := svc.Save(ctx, creds); !errors.Is(err, apperrors.ErrInvalidCredentials) {
				t.Errorf("Save(%q) expected ErrInvalidCredentials, got %v", creds.Email, err)
			}
		}
	})

	t.Run("refuses to store without a key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, err := service.NewCredentialService(repository.NewCredentialRepository(db), "", fallback)
		if err != nil {
			t.Fatalf("NewCredentialService() returned unexpected error: %v", err)
		}

		err = svc.Save(ctx, kinvo.Credentials{Email: "a@example.com", Password: "x"})
		if !errors.Is(err, apperrors.ErrCredentialKeyMissing) {
			t.Errorf("Expected ErrCredentialKeyMissing, got %v", err)
		}

		creds, err := svc.Credentials(ctx)
		if err != nil || creds != fallback {
			t.Errorf("Expected fallback credentials, got %+v (%v)", creds, err)
		}
	})

	t.Run("rejects malformed keys", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, err := service.NewCredentialService(repository.NewCredentialRepository(db), "not-a-key", fallback)
		if err == nil {
			t.Error("Expected error for malformed key")
		}
	})

	t.Run("stored credentials take precedence over the fallback", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestCredentialService(t, db, fallback)

		creds, err := svc.Credentials(ctx)
		if err != nil || creds != fallback {
			t.Fatalf("Expected fallback before saving, got %+v (%v)", creds, err)
		}

		svc.Save(ctx, kinvo.Credentials{Email: "db@example.com", Password: "stored"}) //nolint:errcheck
		creds, err = svc.Credentials(ctx)
		if err != nil || creds.Email != "db@example.com" {
			t.Errorf("Expected stored credentials, got %+v (%v)", creds, err)
		}

		if err := svc.Delete(ctx); err != nil {
			t.Fatalf("Delete() returned unexpected error: %v", err)
		}
		creds, err = svc.Credentials(ctx)
		if err != nil || creds != fallback {
			t.Errorf("Expected fallback after delete, got %+v (%v)", creds, err)
		}
	})

	t.Run("returns ErrCredentialsNotFound without any credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestCredentialService(t, db, kinvo.Credentials{})

		_, err := svc.Credentials(ctx)
		if !errors.Is(err, apperrors.ErrCredentialsNotFound) {
			t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
		}
	})

	t.Run("fails when the key changed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTestCredentialService(t, db, kinvo.Credentials{}).
			Save(ctx, kinvo.Credentials{Email: "a@example.com", Password: "x"}) //nolint:errcheck

		// NewTestCredentialService generates a fresh key
		other := testutil.NewTestCredentialService(t, db, kinvo.Credentials{})
		if _, err := other.Load(ctx); err == nil {
			t.Error("Expected decryption error with a different key")
		}
	})
}

