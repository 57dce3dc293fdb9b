package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

type mockIdentifier struct {
	mock.Mock
}

func (m *mockIdentifier) Identify(ctx context.Context, token string) (services.CallerContext, *utils.Claims, error) {
	args := m.Called(token)
	claims, _ := args.Get(1).(*utils.Claims)
	return args.Get(0).(services.CallerContext), claims, args.Error(2)
}

func newTestEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(ctx *gin.Context) {
		c := Caller(ctx)
		ctx.JSON(http.StatusOK, gin.H{"user_id": c.UserID, "role": c.Role})
	})
	r.GET("/", handlers...)
	return r
}

func doGet(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	id := new(mockIdentifier)
	id.On("Identify", "good").Return(services.CallerContext{UserID: 7, Role: models.RoleUser}, &utils.Claims{UserID: 7}, nil)
	id.On("Identify", "pending").Return(services.Anonymous, nil, services.Forbidden("account is awaiting approval"))
	id.On("Identify", "bad").Return(services.Anonymous, nil, services.Unauthorized("invalid token"))

	r := newTestEngine(AuthRequired(id))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer   ", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"pending account", "Bearer pending", http.StatusForbidden},
		{"valid token", "Bearer good", http.StatusOK},
		{"case insensitive scheme", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := doGet(r, "Bearer good")
	assert.JSONEq(t, `{"user_id":7,"role":"USER"}`, w.Body.String())
}

func TestAuthOptional(t *testing.T) {
	id := new(mockIdentifier)
	id.On("Identify", "good").Return(services.CallerContext{UserID: 3, Role: models.RoleAdmin}, &utils.Claims{UserID: 3}, nil)
	id.On("Identify", "bad").Return(services.Anonymous, nil, services.Unauthorized("invalid token"))

	r := newTestEngine(AuthOptional(id))

	w := doGet(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String())

	w = doGet(r, "Bearer bad")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String())

	w = doGet(r, "Bearer good")
	assert.JSONEq(t, `{"user_id":3,"role":"ADMIN"}`, w.Body.String())
}

func TestAdminRequired(t *testing.T) {
	id := new(mockIdentifier)
	id.On("Identify", "admin").Return(services.CallerContext{UserID: 1, Role: models.RoleAdmin}, &utils.Claims{UserID: 1}, nil)
	id.On("Identify", "user").Return(services.CallerContext{UserID: 2, Role: models.RoleUser}, &utils.Claims{UserID: 2}, nil)

	r := newTestEngine(AuthRequired(id), AdminRequired())

	assert.Equal(t, http.StatusOK, doGet(r, "Bearer admin").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer user").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
}

func TestCallerDefaultsToAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, services.Anonymous, Caller(ctx))
	assert.Nil(t, Claims(ctx))
}
