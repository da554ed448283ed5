// Package auth issues and validates the bearer tokens that gate write
// operations, and manages the user accounts they are bound to.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indicates an unknown email or a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

const defaultTokenTTL = 72 * time.Hour

// Service registers users and exchanges credentials for signed tokens.
type Service struct {
	repo     simpleblog.Repository
	tokens   *jwtauth.JWTAuth
	tokenTTL time.Duration
}

// New creates an auth service signing tokens with the given secret.
func New(repo simpleblog.Repository, secret string) *Service {
	return &Service{
		repo:     repo,
		tokens:   jwtauth.New("HS256", []byte(secret), nil),
		tokenTTL: defaultTokenTTL,
	}
}

// RegisterRequest contains parameters for creating an account
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Register creates a user and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*simpleblog.User, string, error) {
	verr := simpleblog.NewValidationError()
	if req.Name == "" {
		verr.Add("name", "name is required")
	}
	if req.Email == "" {
		verr.Add("email", "email is required")
	}
	if req.Password == "" {
		verr.Add("password", "password is required")
	}
	if req.Email != "" {
		if _, err := s.repo.GetUserByEmail(ctx, req.Email); err == nil {
			verr.Add("email", "email has already been taken")
		} else if !errors.Is(err, simpleblog.ErrUserNotFound) {
			return nil, "", err
		}
	}
	if !verr.Empty() {
		return nil, "", verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &simpleblog.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks credentials and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*simpleblog.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, simpleblog.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) issueToken(user *simpleblog.User) (string, error) {
	now := time.Now().UTC()
	claims := map[string]interface{}{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	_, token, err := s.tokens.Encode(claims)
	return token, err
}

// UserFromToken resolves a raw token string to its user. Used by tests
// and non-HTTP callers; HTTP requests go through Verifier/Authenticator.
func (s *Service) UserFromToken(ctx context.Context, token string) (*simpleblog.User, error) {
	decoded, err := s.tokens.Decode(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.userFromSubject(ctx, decoded.Subject())
}

func (s *Service) userFromSubject(ctx context.Context, subject string) (*simpleblog.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, simpleblog.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

type contextKey string

const userContextKey contextKey = "auth_user"

// Verifier returns middleware that parses and verifies a bearer token
// from the Authorization header.
func (s *Service) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(s.tokens)
}

// Authenticator returns middleware that rejects requests without a
// valid token and stores the resolved acting user in the request
// context. It must run after Verifier.
func (s *Service) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			writeUnauthorized(w)
			return
		}

		user, err := s.userFromSubject(r.Context(), token.Subject())
		if err != nil {
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the acting user stored by Authenticator.
func UserFromContext(ctx context.Context) (*simpleblog.User, bool) {
	user, ok := ctx.Value(userContextKey).(*simpleblog.User)
	return user, ok
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"Unauthenticated"}`))
}
