// Package auth issues and verifies bearer tokens and hashes passwords.
//
// A token is base64(payload) "." base64(HMAC-SHA256(payload)) where the
// payload is "subject|expiresAt|issuedAt" in Unix seconds.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken covers malformed, tampered and expired tokens
	ErrInvalidToken = errors.New("could not validate credentials")
	// ErrInvalidCredentials means the email or password did not match
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

// Claims is the content of a verified token
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Issuer signs and verifies tokens with a shared secret
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. secret must not be empty.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns how long issued tokens stay valid
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a signed token for subject
func (i *Issuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	now := i.now()
	payload := fmt.Sprintf("%s|%d|%d", subject, now.Add(i.ttl).Unix(), now.Unix())

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	encodedSignature := base64.RawURLEncoding.EncodeToString(i.sign([]byte(payload)))
	return encodedPayload + "." + encodedSignature, nil
}

// Parse verifies token and returns its claims
func (i *Issuer) Parse(token string) (*Claims, error) {
	encodedPayload, encodedSignature, ok := strings.Cut(token, ".")
	if !ok {
		return nil, fmt.Errorf("%w: malformed token", ErrInvalidToken)
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad payload encoding", ErrInvalidToken)
	}
	signature, err := base64.RawURLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return nil, fmt.Errorf("%w: bad signature encoding", ErrInvalidToken)
	}
	if !hmac.Equal(signature, i.sign(payload)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	}

	// the subject may itself contain '|', so split from the right
	fields := string(payload)
	iatSep := strings.LastIndexByte(fields, '|')
	if iatSep < 0 {
		return nil, fmt.Errorf("%w: malformed payload", ErrInvalidToken)
	}
	expSep := strings.LastIndexByte(fields[:iatSep], '|')
	if expSep <= 0 {
		return nil, fmt.Errorf("%w: malformed payload", ErrInvalidToken)
	}

	exp, err := strconv.ParseInt(fields[expSep+1:iatSep], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed expiry", ErrInvalidToken)
	}
	iat, err := strconv.ParseInt(fields[iatSep+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed issue time", ErrInvalidToken)
	}

	claims := &Claims{
		Subject:   fields[:expSep],
		ExpiresAt: time.Unix(exp, 0),
		IssuedAt:  time.Unix(iat, 0),
	}
	if !i.now().Before(claims.ExpiresAt) {
		return nil, fmt.Errorf("%w: token has expired", ErrInvalidToken)
	}
	return claims, nil
}

func (i *Issuer) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, i.secret)
	h.Write(payload)
	return h.Sum(nil)
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a bcrypt hash
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
