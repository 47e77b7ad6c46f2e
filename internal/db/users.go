package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `
	id, username, email, password_hash, is_admin, is_verified, profile_image,
	verification_otp, verification_otp_expire,
	reset_password_otp, reset_password_otp_expire,
	created_at`

func (s *UserStore) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			username, email, password_hash, profile_image,
			verification_otp, verification_otp_expire
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		user.Username, normalizeEmail(user.Email), user.PasswordHash, user.ProfileImage,
		nullString(user.VerificationOTP), nullTime(user.VerificationOTPExpire),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, userID))
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, query, normalizeEmail(email)))
}

// SetVerificationOTP stores a fresh account-verification code.
func (s *UserStore) SetVerificationOTP(ctx context.Context, userID uuid.UUID, otp string, expire time.Time) error {
	query := `
		UPDATE users
		SET verification_otp = $2, verification_otp_expire = $3
		WHERE id = $1
	`
	_, err := s.pool.Exec(ctx, query, userID, otp, expire)
	return err
}

// MarkVerified flips the account to verified and consumes the code.
func (s *UserStore) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, verification_otp = NULL, verification_otp_expire = NULL
		WHERE id = $1
	`
	_, err := s.pool.Exec(ctx, query, userID)
	return err
}

func (s *UserStore) SetResetPasswordOTP(ctx context.Context, userID uuid.UUID, otp string, expire time.Time) error {
	query := `
		UPDATE users
		SET reset_password_otp = $2, reset_password_otp_expire = $3
		WHERE id = $1
	`
	_, err := s.pool.Exec(ctx, query, userID, otp, expire)
	return err
}

// UpdatePassword sets a new hash and consumes any outstanding reset code.
func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_password_otp = NULL, reset_password_otp_expire = NULL
		WHERE id = $1
	`
	_, err := s.pool.Exec(ctx, query, userID, passwordHash)
	return err
}

func (s *UserStore) UpdateProfile(ctx context.Context, userID uuid.UUID, username, email, profileImage string) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, profile_image = $4
		WHERE id = $1
	`
	_, err := s.pool.Exec(ctx, query, userID, username, normalizeEmail(email), profileImage)
	return err
}

func scanUser(row orderScanner) (*User, error) {
	var (
		user                  User
		verificationOTP       pgtype.Text
		verificationOTPExpire pgtype.Timestamptz
		resetOTP              pgtype.Text
		resetOTPExpire        pgtype.Timestamptz
	)

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.IsVerified, &user.ProfileImage,
		&verificationOTP, &verificationOTPExpire,
		&resetOTP, &resetOTPExpire,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verificationOTP.Valid {
		user.VerificationOTP = verificationOTP.String
	}
	if verificationOTPExpire.Valid {
		user.VerificationOTPExpire = verificationOTPExpire.Time
	}
	if resetOTP.Valid {
		user.ResetPasswordOTP = resetOTP.String
	}
	if resetOTPExpire.Valid {
		user.ResetPasswordOTPExpire = resetOTPExpire.Time
	}

	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}

func nullTime(value time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: value, Valid: !value.IsZero()}
}
