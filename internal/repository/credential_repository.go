package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
)

// StoredCredential is the persisted form of the Kinvo credentials.
// PasswordToken is a fernet token, never the plain password.
type StoredCredential struct {
	Email         string
	PasswordToken string
	UpdatedAt     time.Time
}

// CredentialRepository provides data access methods for the kinvo_credential table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository with the provided database connection.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// GetCredential returns the stored credential.
// Returns apperrors.ErrCredentialsNotFound when nothing is stored.
func (r *CredentialRepository) GetCredential(ctx context.Context) (StoredCredential, error) {
	var (
		c         StoredCredential
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT email, password_token, updated_at FROM kinvo_credential WHERE id = 1`,
	).Scan(&c.Email, &c.PasswordToken, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredCredential{}, apperrors.ErrCredentialsNotFound
	}
	if err != nil {
		return StoredCredential{}, fmt.Errorf("failed to query credential: %w", err)
	}
	if c.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return StoredCredential{}, err
	}
	return c, nil
}

// SaveCredential replaces the stored credential.
func (r *CredentialRepository) SaveCredential(ctx context.Context, c StoredCredential) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO kinvo_credential (id, email, password_token, updated_at)
        VALUES (1, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            email = excluded.email,
            password_token = excluded.password_token,
            updated_at = excluded.updated_at`,
		c.Email, c.PasswordToken, formatTimestamp(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// DeleteCredential removes the stored credential.
// Returns apperrors.ErrCredentialsNotFound when nothing was stored.
func (r *CredentialRepository) DeleteCredential(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM kinvo_credential WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.ErrCredentialsNotFound
	}
	return nil
}
