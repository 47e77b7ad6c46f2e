package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/email"
	"github.com/kasuwaapp/kasuwa/internal/logging"
	"github.com/kasuwaapp/kasuwa/internal/models"
)

const otpLifetime = 10 * time.Minute

type UserService struct {
	userStore userStore
	provider  email.Provider
	renderer  *email.Renderer
	storeName string
	storeURL  string
	logger    *slog.Logger
	now       func() time.Time
}

type userStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*db.User, error)
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	SetVerificationOTP(ctx context.Context, userID uuid.UUID, otp string, expire time.Time) error
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	SetResetPasswordOTP(ctx context.Context, userID uuid.UUID, otp string, expire time.Time) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, username, email, profileImage string) error
}

func NewUserService(userStore userStore, provider email.Provider, renderer *email.Renderer, storeName, storeURL string, logger *slog.Logger) *UserService {
	return &UserService{
		userStore: userStore,
		provider:  provider,
		renderer:  renderer,
		storeName: storeName,
		storeURL:  storeURL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *UserService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an unverified account and emails a verification
// code. The email failure is logged, not fatal, so a flaky provider
// does not strand the signup.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*db.User, error) {
	if input.Username == "" || input.Email == "" || len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: username, email and a password of at least 8 characters are required", ErrInvalidCredentials)
	}

	if _, err := s.userStore.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	user := &db.User{
		Username:              input.Username,
		Email:                 strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash:          string(hash),
		ProfileImage:          models.DefaultProfileImage,
		VerificationOTP:       otp,
		VerificationOTPExpire: s.now().Add(otpLifetime),
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendAccountEmail(ctx, user, otp, "verify_account")

	return user, nil
}

// Login checks credentials and returns the account. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (*db.User, error) {
	user, err := s.userStore.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// VerifyAccount consumes a verification code and activates the account.
func (s *UserService) VerifyAccount(ctx context.Context, emailAddr, otp string) (*db.User, error) {
	user, err := s.userStore.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsVerified {
		return user, nil
	}
	if user.VerificationOTP == "" || user.VerificationOTP != otp {
		return nil, ErrInvalidOTP
	}
	if s.now().After(user.VerificationOTPExpire) {
		return nil, ErrOTPExpired
	}

	if err := s.userStore.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}
	user.IsVerified = true
	user.VerificationOTP = ""

	s.sendAccountEmail(ctx, user, "", "welcome")

	return user, nil
}

// ResendOTP issues a fresh verification code for an unverified account.
func (s *UserService) ResendOTP(ctx context.Context, emailAddr string) error {
	user, err := s.userStore.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsVerified {
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.userStore.SetVerificationOTP(ctx, user.ID, otp, s.now().Add(otpLifetime)); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	s.sendAccountEmail(ctx, user, otp, "verify_account")
	return nil
}

// ForgotPassword issues a password reset code. An unknown email is
// reported as success so the endpoint does not leak which addresses
// have accounts.
func (s *UserService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userStore.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}
	if err := s.userStore.SetResetPasswordOTP(ctx, user.ID, otp, s.now().Add(otpLifetime)); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	s.sendAccountEmail(ctx, user, otp, "reset_password")
	return nil
}

// ResetPassword consumes a reset code and installs the new password.
func (s *UserService) ResetPassword(ctx context.Context, emailAddr, otp, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}

	user, err := s.userStore.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.ResetPasswordOTP == "" || user.ResetPasswordOTP != otp {
		return ErrInvalidOTP
	}
	if s.now().After(user.ResetPasswordOTPExpire) {
		return ErrOTPExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userStore.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.sendAccountEmail(ctx, user, "", "password_changed")
	return nil
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

type UpdateProfileInput struct {
	Username     string
	Email        string
	ProfileImage string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*db.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if input.Username != "" {
		user.Username = input.Username
	}
	if input.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.ProfileImage != "" {
		user.ProfileImage = input.ProfileImage
	}

	if err := s.userStore.UpdateProfile(ctx, user.ID, user.Username, user.Email, user.ProfileImage); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *UserService) sendAccountEmail(ctx context.Context, user *db.User, otp, templateName string) {
	if s.provider == nil || s.renderer == nil {
		return
	}

	info := &email.AccountInfo{
		Username:      user.Username,
		CustomerEmail: user.Email,
		OTP:           otp,
		OTPMinutes:    int(otpLifetime.Minutes()),
		StoreName:     s.storeName,
		StoreURL:      s.storeURL,
	}

	var (
		msg *email.Email
		err error
	)
	switch templateName {
	case "verify_account":
		msg, err = s.renderer.RenderVerifyAccount(info)
	case "welcome":
		msg, err = s.renderer.RenderWelcome(info)
	case "reset_password":
		msg, err = s.renderer.RenderResetPassword(info)
	case "password_changed":
		msg, err = s.renderer.RenderPasswordChanged(info)
	default:
		return
	}
	if err == nil {
		err = s.provider.SendEmail(ctx, msg)
	}
	if err != nil {
		s.loggerFromContext(ctx).Warn("failed to send account email", "error", err, "template", templateName, "user_id", user.ID)
	}
}

// generateOTP returns a 6 digit zero padded code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
