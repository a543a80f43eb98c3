package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for the chat server.
// It includes standard claims required by the JWT specification and custom claims
// necessary for identifying users within the chat system.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the numeric account identifier, matching the users table primary key.
	UserID int64 `json:"uid"`

	// Username is the unique login name, carried so handlers can build client-facing
	// identity without a database round trip.
	Username string `json:"username"`
}
