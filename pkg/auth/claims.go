package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-backend/pkg/enums"
)

// AccessTokenPayload is the input for minting an access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

// AccessTokenClaims are the typed JWT claims carried by every request.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"uid"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
