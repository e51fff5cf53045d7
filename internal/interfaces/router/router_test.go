package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskdesk-backend/internal/config"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database/dbtest"
	"taskdesk-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testApp struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata json.RawMessage `json:"metadata"`
	Error    struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newTestApp(t *testing.T, secret string) *testApp {
	t.Helper()
	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:            "test",
		SessionSecret:  secret,
		InviteBaseURL:  "http://localhost:3000",
		InviteTTLDays:  7,
		HealthAdminKey: "admin-key",
		AuthRateLimit:  1000,
		AuthRateBurst:  1000,
	}
	app := New(Deps{Config: cfg, DB: db, Rdb: rdb, Now: dbtest.NewClock().Now, BcryptCost: bcrypt.MinCost})
	return &testApp{t: t, app: app, db: db, mr: mr}
}

func (a *testApp) do(method, path string, body interface{}, cookie string) (int, envelope, *http.Response) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: cookie})
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env, resp
}

// signUp registers and logs in, returning the session cookie value.
func (a *testApp) signUp(email string) string {
	a.t.Helper()
	status, _, _ := a.do("POST", "/api/v1/auth/register", map[string]string{"email": email, "password": "passw0rd!"}, "")
	require.Equal(a.t, fiber.StatusCreated, status)
	status, _, resp := a.do("POST", "/api/v1/auth/login", map[string]string{"email": email, "password": "passw0rd!"}, "")
	require.Equal(a.t, fiber.StatusOK, status)
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			return ck.Value
		}
	}
	a.t.Fatal("login did not set a session cookie")
	return ""
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestAuth_Unauthenticated(t *testing.T) {
	a := newTestApp(t, "")
	status, env, _ := a.do("GET", "/api/v1/orgs", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "error", env.Status)

	status, _, _ = a.do("GET", "/api/v1/auth/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	a := newTestApp(t, "")
	a.signUp("alice@example.com")
	status, env, _ := a.do("POST", "/api/v1/auth/login", map[string]string{"email": "alice@example.com", "password": "wrong-pass1"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password.", env.Error.Message)
}

func TestAuth_DuplicateRegistration(t *testing.T) {
	a := newTestApp(t, "")
	a.signUp("alice@example.com")
	status, _, _ := a.do("POST", "/api/v1/auth/register", map[string]string{"email": "ALICE@example.com", "password": "passw0rd!"}, "")
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestAuth_EncryptedCookieRoundTrip(t *testing.T) {
	a := newTestApp(t, "a-long-session-secret")
	cookie := a.signUp("alice@example.com")
	sessions := 0
	for _, k := range a.mr.Keys() {
		if strings.HasPrefix(k, middleware.SessionRedisPrefix) {
			sessions++
		}
	}
	assert.Equal(t, 1, sessions)

	status, env, _ := a.do("GET", "/api/v1/auth/me", nil, cookie)
	require.Equal(t, fiber.StatusOK, status)
	me := decode[map[string]domain.User](t, env.Data)
	assert.Equal(t, "alice@example.com", me["user"].Email)

	status, _, _ = a.do("DELETE", "/api/v1/auth/logout", nil, cookie)
	assert.Equal(t, fiber.StatusOK, status)
	status, _, _ = a.do("GET", "/api/v1/auth/me", nil, cookie)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestInvitationAndTaskFlow(t *testing.T) {
	a := newTestApp(t, "")
	alice := a.signUp("alice@example.com")
	bob := a.signUp("bob@example.com")

	status, env, _ := a.do("POST", "/api/v1/orgs", map[string]string{"name": "Acme"}, alice)
	require.Equal(t, fiber.StatusCreated, status)
	org := decode[domain.Organization](t, env.Data)
	base := "/api/v1/orgs/" + org.ID.String()

	// bob is not a member yet
	status, _, _ = a.do("GET", base+"/tasks", nil, bob)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env, _ = a.do("POST", base+"/invitations", map[string]interface{}{"email": "bob@example.com", "role": "member"}, alice)
	require.Equal(t, fiber.StatusCreated, status)
	created := decode[struct {
		Token     string `json:"token"`
		InviteURL string `json:"inviteUrl"`
	}](t, env.Data)
	assert.Equal(t, "http://localhost:3000/invite/"+created.Token, created.InviteURL)

	status, env, _ = a.do("POST", "/api/v1/invitations/check", map[string]string{"token": created.Token}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Acme", decode[map[string]interface{}](t, env.Data)["orgName"])

	status, _, _ = a.do("POST", "/api/v1/invitations/accept", map[string]string{"token": created.Token}, bob)
	require.Equal(t, fiber.StatusOK, status)
	status, _, _ = a.do("POST", "/api/v1/invitations/accept", map[string]string{"token": created.Token}, bob)
	assert.Equal(t, fiber.StatusConflict, status)

	status, env, _ = a.do("POST", base+"/tasks", map[string]interface{}{"title": "Write report", "description": "Q1 numbers"}, bob)
	require.Equal(t, fiber.StatusCreated, status)
	task := decode[domain.Task](t, env.Data)
	assert.Equal(t, domain.TaskTodo, task.Status)

	status, _, _ = a.do("PATCH", base+"/tasks/"+task.ID.String(), map[string]interface{}{"description": nil, "status": "IN_PROGRESS"}, bob)
	require.Equal(t, fiber.StatusOK, status)

	status, env, _ = a.do("GET", base+"/tasks?status=in-progress", nil, bob)
	require.Equal(t, fiber.StatusOK, status)
	list := decode[struct {
		Items      []domain.Task `json:"items"`
		Total      int           `json:"total"`
		TotalPages int           `json:"totalPages"`
	}](t, env.Data)
	require.Len(t, list.Items, 1)
	assert.Nil(t, list.Items[0].Description)
	assert.Equal(t, 1, list.TotalPages)

	status, env, _ = a.do("GET", base+"/tasks?status=open", nil, bob)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, decode[struct {
		Total int `json:"total"`
	}](t, env.Data).Total)

	status, env, _ = a.do("GET", base+"/tasks?assignee=unassigned", nil, bob)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, decode[struct {
		Total int `json:"total"`
	}](t, env.Data).Total)

	status, _, _ = a.do("GET", base+"/tasks?status=blocked", nil, bob)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// members cannot read the audit trail or delete tasks
	status, _, _ = a.do("GET", base+"/audit", nil, bob)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _, _ = a.do("DELETE", base+"/tasks/"+task.ID.String(), nil, bob)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env, _ = a.do("GET", base+"/audit?limit=2", nil, alice)
	require.Equal(t, fiber.StatusOK, status)
	logs := decode[[]domain.AuditLog](t, env.Data)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.ActionTaskStatusChanged, logs[0].Action)
	meta := decode[map[string]*string](t, env.Metadata)
	require.NotNil(t, meta["nextCursor"])

	status, _, _ = a.do("DELETE", base+"/tasks/"+task.ID.String(), nil, alice)
	assert.Equal(t, fiber.StatusOK, status)
	status, _, _ = a.do("GET", base+"/tasks/"+task.ID.String(), nil, alice)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCrossTenantTaskAccess(t *testing.T) {
	a := newTestApp(t, "")
	alice := a.signUp("alice@example.com")
	carol := a.signUp("carol@example.com")

	_, env, _ := a.do("POST", "/api/v1/orgs", map[string]string{"name": "Acme"}, alice)
	acme := decode[domain.Organization](t, env.Data)
	_, env, _ = a.do("POST", "/api/v1/orgs", map[string]string{"name": "Globex"}, carol)
	globex := decode[domain.Organization](t, env.Data)

	_, env, _ = a.do("POST", "/api/v1/orgs/"+acme.ID.String()+"/tasks", map[string]string{"title": "Secret plan"}, alice)
	task := decode[domain.Task](t, env.Data)

	// carol asks for acme's task through her own org
	status, _, _ := a.do("GET", "/api/v1/orgs/"+globex.ID.String()+"/tasks/"+task.ID.String(), nil, carol)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _, _ = a.do("PATCH", "/api/v1/orgs/"+globex.ID.String()+"/tasks/"+task.ID.String(), map[string]string{"title": "Mine now"}, carol)
	assert.Equal(t, fiber.StatusNotFound, status)

	// and directly
	status, _, _ = a.do("GET", "/api/v1/orgs/"+acme.ID.String()+"/tasks/"+task.ID.String(), nil, carol)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _, _ = a.do("GET", "/api/v1/orgs/not-a-uuid", nil, carol)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestLastAdminCannotDemoteSelf(t *testing.T) {
	a := newTestApp(t, "")
	alice := a.signUp("alice@example.com")
	_, env, _ := a.do("POST", "/api/v1/orgs", map[string]string{"name": "Acme"}, alice)
	org := decode[domain.Organization](t, env.Data)

	_, env, _ = a.do("GET", "/api/v1/auth/me", nil, alice)
	me := decode[map[string]domain.User](t, env.Data)["user"]

	status, _, _ := a.do("PATCH", "/api/v1/orgs/"+org.ID.String()+"/members/"+me.ID.String(), map[string]string{"role": "MEMBER"}, alice)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestHealthMarkerCountsRequests(t *testing.T) {
	a := newTestApp(t, "")
	a.do("GET", "/api/v1/orgs", nil, "")
	a.do("GET", "/api/v1/orgs", nil, "")

	total, err := a.mr.Get("health:global:req_total")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	status, _, _ := a.do("GET", "/health/json", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestLogoutAllSessions(t *testing.T) {
	a := newTestApp(t, "")
	first := a.signUp("alice@example.com")

	_, _, resp := a.do("POST", "/api/v1/auth/login", map[string]string{"email": "alice@example.com", "password": "passw0rd!"}, "")
	var second string
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			second = ck.Value
		}
	}
	require.NotEmpty(t, second)
	require.NotEqual(t, first, second)

	status, _, _ := a.do("DELETE", "/api/v1/auth/sessions", nil, first)
	require.Equal(t, fiber.StatusOK, status)

	status, _, _ = a.do("GET", "/api/v1/auth/me", nil, second)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
