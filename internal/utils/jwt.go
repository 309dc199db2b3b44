package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens

    "github.com/iliyamo/event-bookings/internal/model"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that
// cannot be turned into a principal.
var ErrInvalidToken = errors.New("invalid access token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims are the claims carried by an access token.  The subject holds
// the user ID in decimal form.
type Claims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role, and a TTL in minutes.
func NewAccessToken(secret string, userID uint64, role model.Role, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := Claims{
        Role: string(role),
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(userID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and returns the principal it
// names.  Expired tokens, other signing methods, a non-numeric subject
// and roles outside the known set all yield ErrInvalidToken.
func ParseAccessToken(secret, raw string) (*model.Principal, error) {
    var claims Claims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        // Return the secret bytes used to sign the token.
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    id, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil {
        return nil, ErrInvalidToken
    }
    role, err := model.ParseRole(claims.Role)
    if err != nil {
        return nil, ErrInvalidToken
    }
    return &model.Principal{UserID: id, Role: role}, nil
}
