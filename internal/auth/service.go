package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
	"artisanreel/internal/middleware"
)

const (
	accountByEmailPrefix = "account:email:"
	accountByIDPrefix    = "account:id:"
	revokedTokenPrefix   = "session:revoked:"

	defaultSessionTTL = 24 * time.Hour
)

// ValidationError lists every problem with a form submission.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == domain.ErrInvalidInput
}

type SignUpInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	UserType        string `json:"user_type"`
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is an issued bearer token.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *domain.Account `json:"-"`
}

type Options struct {
	Store      domain.KeyValueStore
	JWTSecret  string
	SessionTTL time.Duration
	BcryptCost int
	Logger     *infra.Logger
}

// Service owns accounts and sessions. All state lives in the injected
// KeyValueStore so the backend can change without touching callers.
type Service struct {
	store      domain.KeyValueStore
	secret     string
	sessionTTL time.Duration
	cost       int
	logger     *infra.Logger
	now        func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	if strings.TrimSpace(opts.JWTSecret) == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		store:      opts.Store,
		secret:     opts.JWTSecret,
		sessionTTL: ttl,
		cost:       cost,
		logger:     infra.LoggerOrDiscard(opts.Logger),
		now:        time.Now,
	}, nil
}

// SignUp validates the form and creates an account. A taken email wraps
// domain.ErrConflict.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.Account, error) {
	email := normalizeEmail(in.Email)
	if err := validateSignUp(in, email); err != nil {
		return nil, err
	}
	if _, err := s.accountByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: an account with this email already exists", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	acct := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		UserType:     domain.UserType(in.UserType),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	raw, err := json.Marshal(acct)
	if err != nil {
		return nil, err
	}
	created, err := s.store.PutIfAbsent(ctx, accountByEmailPrefix+email, raw, 0)
	if err != nil {
		return nil, fmt.Errorf("auth: store account: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("%w: an account with this email already exists", domain.ErrConflict)
	}
	if err := s.store.Put(ctx, accountByIDPrefix+acct.ID, []byte(email), 0); err != nil {
		return nil, fmt.Errorf("auth: store account index: %w", err)
	}
	s.logger.Info().Str("user_id", acct.ID).Str("user_type", string(acct.UserType)).Msg("auth: account created")
	return acct, nil
}

// SignIn checks credentials and issues a signed session token. Unknown
// emails and wrong passwords both wrap domain.ErrUnauthorized.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if err := validateSignIn(in, email); err != nil {
		return nil, err
	}
	acct, err := s.accountByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}

	now := s.now()
	expires := now.Add(s.sessionTTL)
	token, err := middleware.SignJWT(s.secret, middleware.TokenClaims{
		Sub:      acct.ID,
		ID:       uuid.NewString(),
		Name:     acct.Name,
		UserType: string(acct.UserType),
		IssuedAt: now.Unix(),
		Exp:      expires.Unix(),
		Issuer:   middleware.TokenIssuer,
		Audience: middleware.TokenAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires.UTC(), Account: acct}, nil
}

// SignOut revokes token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := middleware.VerifyJWT(s.secret, token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.ID == "" {
		return nil
	}
	ttl := time.Until(time.Unix(claims.Exp, 0))
	if claims.Exp == 0 || ttl <= 0 {
		ttl = s.sessionTTL
	}
	return s.store.Put(ctx, revokedTokenPrefix+claims.ID, []byte("1"), ttl)
}

// IsRevoked implements middleware.RevocationChecker.
func (s *Service) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.store.Get(ctx, revokedTokenPrefix+tokenID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword confirms an account exists. No email is sent; the returned
// message says so.
func (s *Service) ResetPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", &ValidationError{Problems: []string{"Please enter your email address"}}
	}
	if _, err := s.accountByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: no account found with this email address", domain.ErrNotFound)
		}
		return "", err
	}
	return "Password reset email sent! (This is a demo - no email was actually sent)", nil
}

// Me returns the account behind a user id.
func (s *Service) Me(ctx context.Context, userID string) (*domain.Account, error) {
	email, err := s.store.Get(ctx, accountByIDPrefix+userID)
	if err != nil {
		return nil, err
	}
	return s.accountByEmail(ctx, string(email))
}

func (s *Service) accountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	raw, err := s.store.Get(ctx, accountByEmailPrefix+email)
	if err != nil {
		return nil, err
	}
	var acct domain.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return nil, fmt.Errorf("auth: decode account: %w", err)
	}
	return &acct, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func validateSignUp(in SignUpInput, email string) error {
	var problems []string
	if len([]rune(strings.TrimSpace(in.Name))) < 2 {
		problems = append(problems, "Name must be at least 2 characters")
	}
	if !validEmail(email) {
		problems = append(problems, "Please enter a valid email address")
	}
	if len(in.Password) < 8 {
		problems = append(problems, "Password must be at least 8 characters")
	}
	if !hasPasswordMix(in.Password) {
		problems = append(problems, "Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	if in.Password != in.ConfirmPassword {
		problems = append(problems, "Passwords don't match")
	}
	switch domain.UserType(in.UserType) {
	case domain.UserTypeCustomer, domain.UserTypeArtisan:
	default:
		problems = append(problems, "User type must be customer or artisan")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateSignIn(in SignInInput, email string) error {
	var problems []string
	if !validEmail(email) {
		problems = append(problems, "Please enter a valid email address")
	}
	if len(in.Password) < 6 {
		problems = append(problems, "Password must be at least 6 characters")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func hasPasswordMix(p string) bool {
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

var _ middleware.RevocationChecker = (*Service)(nil)
