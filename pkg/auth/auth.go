// Package auth owns participant identity: bcrypt password verification,
// HMAC-signed bearer tokens, and principal resolution for the HTTP surface.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
)

// TokenLifetime is fixed; there is no refresh flow.
const TokenLifetime = 30 * time.Minute

var (
	ErrAlreadyExists = errors.New("auth: name already taken")

	// ErrBadCredentials covers both unknown user and wrong password with a
	// single opaque message, so login cannot be used to enumerate names.
	ErrBadCredentials = errors.New("auth: invalid username or password")

	// ErrUnauthorized covers every token failure: missing, malformed,
	// bad signature, expired, or unknown subject.
	ErrUnauthorized = errors.New("auth: invalid authentication credentials")
)

// dummyHash is compared against when the user does not exist, so that a
// failed login costs the same bcrypt work either way.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Principal is an authenticated participant.
type Principal struct {
	ParticipantID int64  `json:"participant_id"`
	Name          string `json:"name"`
}

type Service struct {
	store           *store.Store
	secret          []byte
	startingBalance int64
}

func NewService(s *store.Store, secret []byte, startingBalance int64) *Service {
	return &Service{store: s, secret: secret, startingBalance: startingBalance}
}

// Signup creates a participant with a bcrypt-hashed password and an account
// holding the starting balance. Fails with ErrAlreadyExists on a taken name.
func (s *Service) Signup(name, password string) (Principal, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, fmt.Errorf("hash password: %w", err)
	}

	rec, err := s.store.CreateParticipant(name, string(hashed), s.startingBalance)
	if errors.Is(err, store.ErrAlreadyExists) {
		return Principal{}, ErrAlreadyExists
	}
	if err != nil {
		return Principal{}, err
	}
	return Principal{ParticipantID: rec.ParticipantID, Name: rec.Name}, nil
}

// Authenticate verifies the password and issues a signed bearer token with
// sub=name and a 30 minute expiry. Unknown names and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(name, password string) (string, error) {
	rec, err := s.store.AuthByName(name)
	if errors.Is(err, store.ErrNotFound) {
		// Burn the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", ErrBadCredentials
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.HashedPassword), []byte(password)) != nil {
		return "", ErrBadCredentials
	}

	claims := jwt.RegisteredClaims{
		Subject:   rec.Name,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenLifetime)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ResolvePrincipal verifies a bearer token and maps its subject to a
// participant. Any failure collapses to ErrUnauthorized.
func (s *Service) ResolvePrincipal(bearer string) (Principal, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(bearer, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return Principal{}, ErrUnauthorized
	}

	rec, err := s.store.AuthByName(claims.Subject)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	return Principal{ParticipantID: rec.ParticipantID, Name: rec.Name}, nil
}
