package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCreds = errors.New("invalid credentials")

// Config holds the curator credentials and token settings. PasswordHash
// (bcrypt) takes precedence over the plain Password; the plain comparison is
// constant-time.
type Config struct {
	Username     string
	Password     string
	PasswordHash string
	AdminEmail   string
	Secret       []byte
	TokenTTL     time.Duration
}

type Service struct {
	cfg Config
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expiresAt"`
}

func NewService(cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if len(cfg.Secret) == 0 {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("failed to generate JWT fallback secret: %v", err)
		}
		cfg.Secret = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	}
	if cfg.Password == "" && cfg.PasswordHash == "" {
		log.Print("no admin password configured; logins are disabled")
	}
	return &Service{cfg: cfg}
}

// Login checks the supplied pair against the configured credentials and
// issues a signed, expiring token whose subject is the admin email.
func (s *Service) Login(req LoginRequest) (*LoginResponse, error) {
	// Unconfigured credentials disable login entirely; an empty configured
	// password must never match an empty submitted one.
	if s.cfg.Password == "" && s.cfg.PasswordHash == "" {
		return nil, ErrInvalidCreds
	}
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Username)) != 1 {
		return nil, ErrInvalidCreds
	}

	if s.cfg.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrInvalidCreds
		}
	} else if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.Password)) != 1 {
		return nil, ErrInvalidCreds
	}

	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub": s.cfg.AdminEmail,
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign token failed: %w", err)
	}

	return &LoginResponse{Token: token, Email: s.cfg.AdminEmail, ExpiresAt: expiresAt.UnixMilli()}, nil
}

// ParseToken validates signature and expiry and returns the admin email.
func (s *Service) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCreds
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCreds
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidCreds
	}
	return sub, nil
}
