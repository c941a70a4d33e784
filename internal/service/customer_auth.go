package service

import "github.com/golang-jwt/jwt/v5"

// CustomerJWTClaims are the claims carried by customer tokens. Tokens are
// issued by the customer service; this service only verifies them.
type CustomerJWTClaims struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	jwt.RegisteredClaims
}
