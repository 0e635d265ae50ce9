package auth

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

// Operator roles carried in the token claims.
const (
	RoleOwner              = "owner"
	RoleTransactionManager = "transaction-manager"
)

// OperatorClaims are the claims carried by operator tokens issued out of band.
type OperatorClaims struct {
	Role    string `json:"role"`
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// OperatorVerifier validates HS256 operator tokens signed with a shared secret.
type OperatorVerifier struct {
	secret []byte
}

// NewOperatorVerifier creates a verifier for operator tokens
func NewOperatorVerifier(secret string) *OperatorVerifier {
	return &OperatorVerifier{secret: []byte(secret)}
}

// Verify validates a token and returns the operator's role and address
func (v *OperatorVerifier) Verify(tokenString string) (string, common.Address, error) {
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", common.Address{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", common.Address{}, fmt.Errorf("invalid token")
	}
	if claims.Role != RoleOwner && claims.Role != RoleTransactionManager {
		return "", common.Address{}, fmt.Errorf("unknown operator role %q", claims.Role)
	}
	if !ValidateEVMAddress(claims.Address) {
		return "", common.Address{}, fmt.Errorf("invalid operator address claim")
	}
	return claims.Role, common.HexToAddress(claims.Address), nil
}

// IssueOperatorToken signs an operator token with the shared secret.
// Used by the token issuance tooling and by tests.
func IssueOperatorToken(secret, role string, address common.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &OperatorClaims{
		Role:    role,
		Address: address.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
