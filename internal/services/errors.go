package services

import "errors"

var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrPaymentNotVerified = errors.New("payment not verified")
	ErrAmountMismatch     = errors.New("payment amount does not match order total")
	ErrEmailMismatch      = errors.New("payment customer does not match order owner")

	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid verification code")
	ErrOTPExpired         = errors.New("verification code expired")
)
