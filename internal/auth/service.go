package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sistema-orcamento/orcamento/internal/platform/db"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// Service wraps authentication and user management rules.
type Service struct {
	repo        Repository
	tokens      *TokenIssuer
	revocations *Revocations
	hashCost    int
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer, revocations *Revocations) *Service {
	return &Service{repo: repo, tokens: tokens, revocations: revocations, hashCost: bcrypt.DefaultCost}
}

// Login validates email/password credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Authenticate resolves a raw bearer token into its claims, rejecting revoked ones.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", shared.ErrUnauthorized)
	}
	return claims, nil
}

// Register creates a user. While no account exists registration is open and the
// new account becomes admin; afterwards only an admin actor may register users.
func (s *Service) Register(ctx context.Context, actor *shared.Identity, req RegisterRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = shared.DigitsOnly(req.Phone)
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	role := req.Role
	switch {
	case count == 0:
		role = shared.RoleAdmin
	case actor == nil:
		return nil, fmt.Errorf("%w: registration requires an administrator", shared.ErrUnauthorized)
	case !actor.IsAdmin():
		return nil, fmt.Errorf("%w: only administrators can register users", shared.ErrForbidden)
	}
	if role == "" {
		role = shared.RoleUser
	}

	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        req.Phone,
		JobTitle:     strings.TrimSpace(req.JobTitle),
		CreatedAt:    time.Now().UTC(),
	})
	if db.IsUniqueViolation(err) {
		return nil, duplicateEmail(req.Email)
	}
	return user, err
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateUser replaces the profile of a user; an empty password keeps the current hash.
func (s *Service) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = shared.DigitsOnly(req.Phone)
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, id); err != nil {
		return nil, err
	}
	existing.Name = req.Name
	existing.Email = req.Email
	existing.Role = req.Role
	existing.Phone = req.Phone
	existing.JobTitle = strings.TrimSpace(req.JobTitle)
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		existing.PasswordHash = string(hash)
	}
	updated, err := s.repo.Update(ctx, *existing)
	if db.IsUniqueViolation(err) {
		return nil, duplicateEmail(req.Email)
	}
	return updated, err
}

// DeleteUser removes an account that authored no quotes. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor shared.Identity, id int64) error {
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot delete the signed-in account", shared.ErrValidation)
	}
	n, err := s.repo.CountAuthoredQuotes(ctx, id)
	if err != nil {
		return fmt.Errorf("count authored quotes: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: user %d authored %d quote(s)", shared.ErrInUse, id, n)
	}
	err = s.repo.Delete(ctx, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: user %d is referenced", shared.ErrInUse, id)
	}
	return err
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case existing.ID != selfID:
		return duplicateEmail(email)
	}
	return nil
}

func duplicateEmail(email string) error {
	return fmt.Errorf("%w: email %s is already registered", shared.ErrDuplicate, email)
}
