package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/utils"
)

const maxUserName = 64

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	URLID         string
	BlogTitle     string
	CaptchaID     string
	CaptchaAnswer string
	IP            string
}

// ProfileInput changes profile fields; nil leaves a field unchanged.
type ProfileInput struct {
	Name      *string `json:"name"`
	BlogTitle *string `json:"blog_title"`
	URLID     *string `json:"url_id"`
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthOptions tunes registration guards. Nil funcs fall back to the
// captcha store and the per-IP cooldown in utils.
type AuthOptions struct {
	CaptchaEnabled bool
	VerifyCaptcha  func(id, answer string) bool
	CooldownTry    func(ip string) bool
}

type AuthService struct {
	users UserStore
	opts  AuthOptions
}

func NewAuthService(users UserStore, opts AuthOptions) *AuthService {
	if opts.VerifyCaptcha == nil {
		opts.VerifyCaptcha = utils.VerifyCaptcha
	}
	if opts.CooldownTry == nil {
		opts.CooldownTry = utils.RegistrationCooldownTry
	}
	return &AuthService{users: users, opts: opts}
}

// Register creates a PENDING account. A missing urlId is derived from the name.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validEmail(email) {
		return nil, Validation("invalid email address")
	}
	if len(in.Password) < utils.MinPasswordLength || len(in.Password) > utils.MaxPasswordBytes {
		return nil, Validation("password must be %d to %d bytes", utils.MinPasswordLength, utils.MaxPasswordBytes)
	}
	if s.opts.CaptchaEnabled && !s.opts.VerifyCaptcha(in.CaptchaID, in.CaptchaAnswer) {
		return nil, Validation("invalid or expired captcha")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	urlID := strings.ToLower(strings.TrimSpace(in.URLID))
	if urlID == "" {
		if urlID, err = s.suggestURLID(ctx, name); err != nil {
			return nil, err
		}
	} else if err := s.checkURLID(ctx, urlID, 0); err != nil {
		return nil, err
	}

	if !s.opts.CooldownTry(in.IP) {
		return nil, Validation("too many registration attempts, try again later")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	blogTitle := utils.SanitizeText(in.BlogTitle)
	if blogTitle == "" {
		blogTitle = name
	}
	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RolePending,
		URLID:        urlID,
		BlogTitle:    blogTitle,
		RegisterIP:   in.IP,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateCause(ctx, urlID)
		}
		return nil, err
	}
	utils.Sugar.Infow("user registered", "user", u.ID, "url_id", u.URLID)
	return u, nil
}

// Login checks credentials and issues a token. Deleted accounts are treated
// like unknown ones; pending accounts are refused until approved.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(u.PasswordHash, password) || !u.IsActive() {
		return nil, Unauthorized("invalid email or password")
	}
	if u.Role == models.RolePending {
		return nil, Forbidden("account is awaiting approval")
	}
	token, err := utils.GenerateToken(u.ID, string(u.Role), utils.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: time.Now().Add(utils.TokenTTL), User: u}, nil
}

// Logout revokes the token with the given id until it would have expired.
func (s *AuthService) Logout(tokenID string, expiresAt time.Time) {
	if tokenID != "" {
		utils.BlacklistToken(tokenID, expiresAt)
	}
}

// Identify resolves a bearer token to a caller, reading the account fresh so
// role changes and deletions apply immediately.
func (s *AuthService) Identify(ctx context.Context, token string) (CallerContext, *utils.Claims, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return Anonymous, nil, Unauthorized("invalid token")
	}
	if utils.IsTokenBlacklisted(claims.ID) {
		return Anonymous, nil, Unauthorized("token revoked")
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return Anonymous, nil, Unauthorized("account not found")
	}
	if err != nil {
		return Anonymous, nil, err
	}
	if !u.IsActive() {
		return Anonymous, nil, Unauthorized("account deleted")
	}
	if u.Role == models.RolePending {
		return Anonymous, nil, Forbidden("account is awaiting approval")
	}
	return CallerContext{UserID: u.ID, Email: u.Email, Role: u.Role}, claims, nil
}

func (s *AuthService) Me(ctx context.Context, caller CallerContext) (*models.User, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	u, err := s.users.FindByID(ctx, caller.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("user")
	}
	return u, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, caller CallerContext, in ProfileInput) (*models.User, error) {
	u, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Name != nil {
		name, err := cleanName(*in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
		u.Name = name
	}
	if in.BlogTitle != nil {
		title := utils.SanitizeText(*in.BlogTitle)
		if utf8.RuneCountInString(title) > maxPostTitle {
			return nil, Validation("blog title must be at most %d characters", maxPostTitle)
		}
		fields["blog_title"] = title
		u.BlogTitle = title
	}
	if in.URLID != nil {
		urlID := strings.ToLower(strings.TrimSpace(*in.URLID))
		if urlID != u.URLID {
			if err := s.checkURLID(ctx, urlID, u.ID); err != nil {
				return nil, err
			}
			fields["url_id"] = urlID
			u.URLID = urlID
		}
	}
	if len(fields) == 0 {
		return u, nil
	}
	if err := s.users.UpdateFields(ctx, u.ID, fields); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Validation("blog address already taken")
		}
		return nil, err
	}
	return u, nil
}

// duplicateCause tells which unique index a concurrent registration hit.
func (s *AuthService) duplicateCause(ctx context.Context, urlID string) error {
	if taken, err := s.users.URLIDTaken(ctx, urlID, 0); err == nil && taken {
		return Validation("blog address already taken")
	}
	return ErrDuplicateEmail
}

func (s *AuthService) checkURLID(ctx context.Context, urlID string, exceptID uint) error {
	if !utils.ValidURLID(urlID) {
		return Validation("blog address must be %d-%d lowercase letters, digits or single hyphens", utils.MinURLIDLength, utils.MaxURLIDLength)
	}
	taken, err := s.users.URLIDTaken(ctx, urlID, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return Validation("blog address already taken")
	}
	return nil
}

func (s *AuthService) suggestURLID(ctx context.Context, name string) (string, error) {
	base := utils.SuggestURLID(name)
	candidate := base
	for i := 2; i < 1000; i++ {
		taken, err := s.users.URLIDTaken(ctx, candidate, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = utils.WithSuffix(base, i)
	}
	return "", Validation("could not derive a free blog address, please choose one")
}

func cleanName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxUserName {
		return "", Validation("name must be at most %d characters", maxUserName)
	}
	return name, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}
