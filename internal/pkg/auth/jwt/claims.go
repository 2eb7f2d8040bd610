package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims verified by the arena.
// Token issuance lives in the external identity system; this server only consumes
// tokens whose claims match this structure.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the unique identifier of the authenticated user.
	UserID string `json:"user_id"`

	// Username is the display name used in rooms, chat, and battle results.
	Username string `json:"username"`
}
