package jwttoken

import (
	"vouch/internal/platform/middleware"
)

// MiddlewareAdapter bridges JWTService to the middleware's validator
// interface without the middleware importing this package's claim type.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		SubjectID: claims.SubjectID,
		Role:      claims.Role,
	}, nil
}
