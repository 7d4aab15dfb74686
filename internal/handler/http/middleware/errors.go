package middleware

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or missing access token")
	ErrCompanyIDRequired     = errors.New("company_id claim is required")
	ErrManagerAccessRequired = errors.New("manager or owner role required")
)
