package jwtmw

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret はサーバに署名鍵が設定されていないことを表します。
	ErrMissingSecret = errors.New("jwt secret is not configured")
	// ErrInvalidToken はトークンの署名・期限・クレームが不正であることを表します。
	ErrInvalidToken = errors.New("invalid token")
)

// Identity はトークンから取り出した認証済みユーザーです。
type Identity struct {
	UserID   uint
	Username string
}

// Verifier はHS256署名のアクセストークンを検証します。
type Verifier struct {
	secret []byte
}

// NewVerifier は指定された署名鍵でVerifierを生成します。
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify はトークンを検証し、ユーザーIDとユーザー名を返します。
func (v *Verifier) Verify(tokenStr string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, ErrMissingSecret
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// HMAC 以外のアルゴリズムは拒否
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	// JWT numbers are decoded as float64
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)

	return Identity{UserID: uint(sub), Username: username}, nil
}
