package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cavestore/orderbot/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenIsInvalid = errors.New("token is invalid")
	ErrTokenIsExpired = errors.New("token is expired")
)

// JWTService mints and validates the bearer tokens of the command surface.
// The token claims carry the actor identity and role tiers resolved by the
// platform gateway; this service never looks roles up itself.
type JWTService struct {
	authSecretKey string
}

func NewJWTService(authSecretKey string) *JWTService {
	return &JWTService{authSecretKey: authSecretKey}
}

// GenerateJWT issues a token for the given actor, valid for 24 hours.
func (j *JWTService) GenerateJWT(actor models.Actor) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(actor.ID, 10),
		"name":  actor.Name,
		"roles": actor.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(j.authSecretKey))
	if err != nil {
		return "", fmt.Errorf("error while generating token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken checks the signature and expiry and returns the actor the
// token was issued for.
func (j *JWTService) ValidateToken(tokenString string) (*models.Actor, error) {
	parsedToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.authSecretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenIsExpired
		}

		return nil, fmt.Errorf("error while validating token: %w", err)
	}

	if !parsedToken.Valid {
		return nil, ErrTokenIsInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenIsInvalid
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return nil, ErrTokenIsInvalid
	}

	actorID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, ErrTokenIsInvalid
	}

	actor := &models.Actor{ID: actorID}

	if name, ok := claims["name"].(string); ok {
		actor.Name = name
	}

	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, rawRole := range rawRoles {
			if role, ok := rawRole.(string); ok {
				actor.Roles = append(actor.Roles, role)
			}
		}
	}

	return actor, nil
}
