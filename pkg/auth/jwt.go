package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Ошибки проверки токена
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenInvalid   = errors.New("token is invalid")
)

// SupabaseClaims содержит поля access-токена Supabase.
// Subject — UUID пользователя в auth.users.
type SupabaseClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID возвращает UUID пользователя из subject
func (c *SupabaseClaims) UserID() string {
	return c.Subject
}

// Verifier проверяет access-токены, выпущенные Supabase Auth (HS256, общий секрет проекта).
// Сам вход/регистрация остаются на стороне Supabase.
type Verifier struct {
	secret   []byte
	audience string
	issuer   string
}

// NewVerifier создает верификатор. issuer может быть пустым (не проверяется).
func NewVerifier(secret, audience, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required for Verifier")
	}
	return &Verifier{
		secret:   []byte(secret),
		audience: audience,
		issuer:   issuer,
	}, nil
}

// ParseToken проверяет подпись, срок действия, audience и issuer токена
func (v *Verifier) ParseToken(tokenString string) (*SupabaseClaims, error) {
	claims := &SupabaseClaims{}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if _, err := parser.ParseWithClaims(tokenString, claims, keyFunc); err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: unexpected audience", ErrTokenInvalid)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrTokenInvalid)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrTokenInvalid)
	}

	return claims, nil
}
