package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Token types carried in the "typ" claim.
const (
	TokenTypeAccess              = "access"
	TokenTypePaymentVerification = "payment_verification"
)

var ErrSecretNotConfigured = errors.New("JWT secret not configured")

// TokenManager signs and validates HS256 tokens with one shared secret.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	tm := &TokenManager{now: time.Now}
	if secret != "" {
		tm.secret = []byte(secret)
	}
	return tm
}

// WithClock overrides the time source used when issuing tokens.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

func (tm *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return tm.secret, nil
}

func (tm *TokenManager) parser() *jwt.Parser {
	return jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func (tm *TokenManager) ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	if tm.secret == nil {
		return nil, ErrSecretNotConfigured
	}

	token, err := tm.parser().Parse(tokenStr, tm.keyFunc)
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}

// PaymentClaims bind a verified gateway payment to the user and amount it was
// verified for.
type PaymentClaims struct {
	Type             string `json:"typ"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	AmountMinor      int64  `json:"amount_minor"`
	jwt.RegisteredClaims
}

// IssuePaymentToken signs a payment verification token for userID valid for ttl.
func (tm *TokenManager) IssuePaymentToken(userID, gatewayOrderID, gatewayPaymentID string, amountMinor int64, ttl time.Duration) (string, error) {
	if tm.secret == nil {
		return "", ErrSecretNotConfigured
	}
	now := tm.now()
	claims := PaymentClaims{
		Type:             TokenTypePaymentVerification,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		AmountMinor:      amountMinor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// ParsePaymentToken validates signature, expiry and type of a payment token.
func (tm *TokenManager) ParsePaymentToken(tokenStr string) (*PaymentClaims, error) {
	if tm.secret == nil {
		return nil, ErrSecretNotConfigured
	}

	claims := &PaymentClaims{}
	token, err := tm.parser().ParseWithClaims(tokenStr, claims, tm.keyFunc)
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired payment token")
	}
	if claims.Type != TokenTypePaymentVerification {
		return nil, fmt.Errorf("invalid token type")
	}
	if claims.GatewayOrderID == "" || claims.GatewayPaymentID == "" {
		return nil, fmt.Errorf("payment token missing gateway ids")
	}
	return claims, nil
}

// IssueAccessToken is used by tooling and tests; production access tokens
// come from the identity provider.
func (tm *TokenManager) IssueAccessToken(userID, email, role string, ttl time.Duration) (string, error) {
	if tm.secret == nil {
		return "", ErrSecretNotConfigured
	}
	now := tm.now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"typ":   TokenTypeAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}
