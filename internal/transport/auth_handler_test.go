package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/middleware"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ReturnsSanitizedProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var profile UserProfile
	decodeJSON(t, w, &profile)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "user", profile.Role)
	_, err := uuid.Parse(profile.ID)
	assert.NoError(t, err)

	// The raw body must never carry password material
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)

	req := RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "password123"}
	w := env.do(t, http.MethodPost, "/api/auth/register", "", req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/register", "", req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_AllowlistedEmailBecomesAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name:     "Admin",
		Email:    adminEmail,
		Password: "adminpass123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var profile UserProfile
	decodeJSON(t, w, &profile)
	assert.Equal(t, "admin", profile.Role)
}

func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("registration with invalid data returns validation errors", prop.ForAll(
		func(invalidCase int) bool {
			env := newTestEnv(t)

			var reqBody RegisterRequest
			switch invalidCase % 4 {
			case 0:
				reqBody = RegisterRequest{Email: "", Password: "ValidPass123", Name: "Alice"}
			case 1:
				reqBody = RegisterRequest{Email: "not-an-email", Password: "ValidPass123", Name: "Alice"}
			case 2:
				reqBody = RegisterRequest{Email: "test@example.com", Password: "short", Name: "Alice"}
			case 3:
				reqBody = RegisterRequest{Email: "test@example.com", Password: "ValidPass123"}
			}

			w := env.do(t, http.MethodPost, "/api/auth/register", "", reqBody)
			if w.Code != http.StatusBadRequest {
				t.Logf("FAIL: Expected 400 status code, got %d", w.Code)
				return false
			}

			var response map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Logf("FAIL: Could not decode error response: %v", err)
				return false
			}
			if _, exists := response["error"]; !exists {
				t.Logf("FAIL: Response missing 'error' field")
				return false
			}
			return true
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "password123",
	})

	w := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	decodeJSON(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	cookie := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, resp.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Greater(t, cookie.MaxAge, 0)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "password123",
	})

	wrongPassword := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "alice@example.com", Password: "not-the-password",
	})
	unknownEmail := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "nobody@example.com", Password: "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestSession_CookieRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerAndLogin(t, "Alice", "alice@example.com", "password123")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	decodeJSON(t, w, &resp)
	assert.True(t, resp.IsAuthenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice@example.com", resp.User.Email)
}

func TestSession_MissingTokenReportsUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	decodeJSON(t, w, &resp)
	assert.False(t, resp.IsAuthenticated)
	assert.Nil(t, resp.User)
}

func TestSession_DeletedUserReportsUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	token, user := env.registerAndLogin(t, "Alice", "alice@example.com", "password123")

	delete(env.userRepo.users, user.ID)

	w := env.do(t, http.MethodGet, "/api/auth/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	decodeJSON(t, w, &resp)
	assert.False(t, resp.IsAuthenticated)
}

func TestSignout_ExpiresCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookie := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
