package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/utils"
)

func allowAll(string) bool { return true }

func newAuth(users *memUsers) *AuthService {
	return NewAuthService(users, AuthOptions{CooldownTry: allowAll})
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(newMemUsers())

	cases := []RegisterInput{
		{Name: "", Email: "a@example.com", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: strings.Repeat("x", 73)},
		{Name: "A", Email: "a@example.com", Password: "secret1", URLID: "Bad_ID"},
		{Name: "A", Email: "a@example.com", Password: "secret1", URLID: "ab"},
		{Name: strings.Repeat("n", 65), Email: "a@example.com", Password: "secret1"},
	}
	for _, in := range cases {
		_, err := auth.Register(ctx, in)
		assert.True(t, IsKind(err, KindValidation), "%+v", in)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(&models.User{ID: 1, Email: "taken@example.com", URLID: "taken"})
	auth := newAuth(users)

	_, err := auth.Register(ctx, RegisterInput{Name: "B", Email: "Taken@Example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
	assert.Zero(t, users.writes)
}

func TestRegister_DerivesUniqueURLID(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(&models.User{ID: 1, Email: "x@example.com", URLID: "jose-garcia"})
	auth := newAuth(users)

	u, err := auth.Register(ctx, RegisterInput{Name: "José García", Email: "jose@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jose-garcia-2", u.URLID)
	assert.Equal(t, models.RolePending, u.Role)
	assert.Equal(t, "José García", u.BlogTitle)
	assert.NotEqual(t, "secret1", u.PasswordHash)
}

func TestRegister_URLIDTaken(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(newMemUsers(&models.User{ID: 1, Email: "x@example.com", URLID: "mine"}))

	_, err := auth.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "secret1", URLID: "mine"})
	assert.True(t, IsKind(err, KindValidation))
}

// racingUsers lets a rival registration land between the checks and the insert.
type racingUsers struct {
	*memUsers
	rival *models.User
}

func (r *racingUsers) Create(_ context.Context, _ *models.User) error {
	r.users[r.rival.ID] = r.rival
	return repository.ErrDuplicate
}

func TestRegister_ConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()

	sameURL := &racingUsers{memUsers: newMemUsers(), rival: &models.User{ID: 9, Email: "other@example.com", URLID: "shared"}}
	_, err := NewAuthService(sameURL, AuthOptions{CooldownTry: allowAll}).
		Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "secret1", URLID: "shared"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateEmail))
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "blog address already taken", err.Error())

	sameEmail := &racingUsers{memUsers: newMemUsers(), rival: &models.User{ID: 9, Email: "b@example.com", URLID: "elsewhere"}}
	_, err = NewAuthService(sameEmail, AuthOptions{CooldownTry: allowAll}).
		Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "secret1", URLID: "shared"})
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
}

func TestRegister_CaptchaAndCooldown(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(newMemUsers(), AuthOptions{
		CaptchaEnabled: true,
		VerifyCaptcha:  func(id, answer string) bool { return id == "c1" && answer == "42" },
		CooldownTry:    func(ip string) bool { return ip != "10.0.0.9" },
	})

	_, err := auth.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", CaptchaID: "c1", CaptchaAnswer: "0"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = auth.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", CaptchaID: "c1", CaptchaAnswer: "42", IP: "10.0.0.9"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = auth.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", CaptchaID: "c1", CaptchaAnswer: "42", IP: "10.0.0.1"})
	assert.NoError(t, err)
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := utils.HashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	deletedAt := time.Now()
	users := newMemUsers(
		&models.User{ID: 1, Email: "ok@example.com", Role: models.RoleUser, PasswordHash: hashed(t, "secret1")},
		&models.User{ID: 2, Email: "pending@example.com", Role: models.RolePending, PasswordHash: hashed(t, "secret1")},
		&models.User{ID: 3, Email: "gone@example.com", Role: models.RoleUser, PasswordHash: hashed(t, "secret1"), DeletedAt: &deletedAt},
	)
	auth := newAuth(users)

	res, err := auth.Login(ctx, "ok@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = auth.Login(ctx, "ok@example.com", "wrong")
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = auth.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = auth.Login(ctx, "gone@example.com", "secret1")
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = auth.Login(ctx, "pending@example.com", "secret1")
	assert.True(t, IsKind(err, KindForbidden))
}

func TestIdentify_ReadsAccountFresh(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(&models.User{ID: 1, Email: "ok@example.com", Role: models.RoleUser, PasswordHash: hashed(t, "secret1")})
	auth := newAuth(users)

	res, err := auth.Login(ctx, "ok@example.com", "secret1")
	require.NoError(t, err)

	caller, claims, err := auth.Identify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), caller.UserID)
	assert.Equal(t, models.RoleUser, caller.Role)

	require.NoError(t, users.UpdateFields(ctx, 1, map[string]interface{}{"role": models.RoleAdmin}))
	caller, _, err = auth.Identify(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, caller.IsAdmin())

	auth.Logout(claims.ID, utils.TokenExpiry(claims))
	_, _, err = auth.Identify(ctx, res.Token)
	assert.True(t, IsKind(err, KindUnauthorized))

	_, _, err = auth.Identify(ctx, "garbage")
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(
		&models.User{ID: 2, Email: "user@example.com", Role: models.RoleUser, URLID: "user-blog"},
		&models.User{ID: 3, Email: "other@example.com", Role: models.RoleUser, URLID: "other-blog"},
	)
	auth := newAuth(users)

	name, title, url := "New Name", "My Blog", "fresh-blog"
	u, err := auth.UpdateProfile(ctx, userCaller, ProfileInput{Name: &name, BlogTitle: &title, URLID: &url})
	require.NoError(t, err)
	assert.Equal(t, "fresh-blog", u.URLID)
	assert.Equal(t, "My Blog", u.BlogTitle)

	taken := "other-blog"
	_, err = auth.UpdateProfile(ctx, userCaller, ProfileInput{URLID: &taken})
	assert.True(t, IsKind(err, KindValidation))

	_, err = auth.UpdateProfile(ctx, Anonymous, ProfileInput{Name: &name})
	assert.True(t, IsKind(err, KindUnauthorized))
}
