package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/db/postgres"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/handler"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/auth/jwt"
	authsvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/chat/registry"
	chatsvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/chat/service"
	tasksvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/task/service"
	authmodel "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/model"
	chatmodel "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/chat/model"
	taskmodel "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/task/model"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/config"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/* ──────────────────────────────── setup ──────────────────────────────── */

type testEnv struct {
	srv      *httptest.Server
	registry *registry.Registry
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&authmodel.Account{}, &taskmodel.Task{}, &chatmodel.Message{}))

	cfg := &config.Config{
		JWTSecret:        strings.Repeat("k", config.MinSecretLength),
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
		LoginMaxAttempts: 5,
		LoginLockout:     time.Minute,
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
		ChatWriteTimeout: time.Second,
	}
	jwtUtil, err := jwt.NewJWTUtil(cfg)
	require.NoError(t, err)

	log := zap.NewNop()
	v := validator.New()
	m := metrics.New()
	reg := registry.New()

	accounts := postgres.NewPostgresAccountRepo(db)
	auth := authsvc.New(accounts, nil, jwtUtil, reg, cfg, v, log)
	tasks := tasksvc.New(postgres.NewPostgresTaskRepo(db), v)
	chat := chatsvc.New(reg, postgres.NewPostgresMessageRepo(db), accounts, m, log)

	srv := httptest.NewServer(handler.New(auth, tasks, chat, cfg, m, log).Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, registry: reg}
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (e *testEnv) client(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: e.srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	code, raw := c.raw(method, path, body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, json.Unmarshal(raw, &out))
	}
	return code, out
}

func (c *client) raw(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, raw
}

func creds(id, pw string) map[string]string {
	return map[string]string{"identifier": id, "password": pw}
}

// signup registers and logs in, returning the access token from the body.
func (c *client) signup(id, pw string) string {
	c.t.Helper()
	code, _ := c.do(http.MethodPost, "/register", creds(id, pw))
	require.Equal(c.t, http.StatusOK, code)
	code, body := c.do(http.MethodPost, "/login", creds(id, pw))
	require.Equal(c.t, http.StatusOK, code)
	return body["access_token"].(string)
}

func (c *client) tasks() []taskmodel.Task {
	c.t.Helper()
	code, raw := c.raw(http.MethodGet, "/tasks/", nil)
	require.Equal(c.t, http.StatusOK, code)
	var out []taskmodel.Task
	require.NoError(c.t, json.Unmarshal(raw, &out))
	return out
}

func (e *testEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, to, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"to": to, "message": msg}))
}

func recv(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) waitOnline(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return e.registry.Len() == n }, 2*time.Second, 5*time.Millisecond)
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestAuthFlow(t *testing.T) {
	env := newEnv(t)
	c := env.client(t)

	code, body := c.do(http.MethodPost, "/register", creds("alice", "pw1"))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])

	code, body = c.do(http.MethodPost, "/register", creds("alice", "pw2"))
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, false, body["success"])
	require.NotEmpty(t, body["message"])

	code, body = c.do(http.MethodPost, "/register", creds("carol", ""))
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["success"])

	code, _ = c.do(http.MethodPost, "/login", creds("alice", "pw2"))
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodPost, "/login", creds("ghost", "pw1"))
	require.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodGet, "/user/username", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, body = c.do(http.MethodPost, "/login", creds("alice", "pw1"))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "bearer", body["token_type"])
	require.NotEmpty(t, body["access_token"])

	code, body = c.do(http.MethodGet, "/user/username", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "alice", body["name"])

	code, body = c.do(http.MethodPost, "/user/username", map[string]string{"name": "Alice"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])

	code, body = c.do(http.MethodPost, "/user/username", map[string]string{"name": "  "})
	require.Equal(t, http.StatusBadRequest, code)

	_, body = c.do(http.MethodGet, "/user/username", nil)
	require.Equal(t, "Alice", body["name"])

	code, body = c.do(http.MethodPost, "/refresh", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["access_token"])

	code, body = c.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])

	code, _ = c.do(http.MethodGet, "/user/username", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = c.do(http.MethodPost, "/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newEnv(t)
	c := env.client(t)
	access := c.signup("alice", "pw1")

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: access})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_CookieScopeAndLifetime(t *testing.T) {
	env := newEnv(t)
	code, _ := env.client(t).do(http.MethodPost, "/register", creds("alice", "pw1"))
	require.Equal(t, http.StatusOK, code)

	b, err := json.Marshal(creds("alice", "pw1"))
	require.NoError(t, err)
	resp, err := http.Post(env.srv.URL+"/login", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookies := map[string]*http.Cookie{}
	for _, ck := range resp.Cookies() {
		cookies[ck.Name] = ck
	}
	require.Contains(t, cookies, "access_token")
	require.Contains(t, cookies, "refresh_token")
	require.Equal(t, "/", cookies["access_token"].Path)
	require.Equal(t, 60, cookies["access_token"].MaxAge)
	require.Equal(t, "/refresh", cookies["refresh_token"].Path)
	require.Equal(t, 3600, cookies["refresh_token"].MaxAge)
	require.True(t, cookies["refresh_token"].HttpOnly)

	refresh := cookies["refresh_token"].Value

	// the refresh token is not an access credential
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/user/username", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: refresh})
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn := env.dial(t, refresh)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestTasks_OwnerScoped(t *testing.T) {
	env := newEnv(t)
	alice, bob := env.client(t), env.client(t)
	alice.signup("alice", "pw")
	bob.signup("bob", "pw")

	code, body := alice.do(http.MethodPost, "/tasks/", map[string]any{"title": "first"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	code, _ = alice.do(http.MethodPost, "/tasks/", map[string]any{
		"title": "second", "description": "with details", "deadline": "2030-01-02",
	})
	require.Equal(t, http.StatusOK, code)

	code, body = alice.do(http.MethodPost, "/tasks/", map[string]any{"title": ""})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["success"])

	list := alice.tasks()
	require.Len(t, list, 2)
	require.Equal(t, "second", list[0].Title)
	require.NotNil(t, list[0].Deadline)
	first := list[1]

	require.Empty(t, bob.tasks())

	code, _ = alice.do(http.MethodPut, "/tasks/"+itoa(first.ID)+"/toggle", nil)
	require.Equal(t, http.StatusOK, code)
	list = alice.tasks()
	require.Equal(t, first.ID, list[1].ID)
	require.True(t, list[1].Completed)

	// bob cannot see the difference between a foreign row and a missing one
	code, foreign := bob.do(http.MethodPut, "/tasks/"+itoa(first.ID)+"/toggle", nil)
	require.Equal(t, http.StatusNotFound, code)
	code, missing := bob.do(http.MethodPut, "/tasks/99999/toggle", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, missing, foreign)

	code, foreign = bob.do(http.MethodDelete, "/tasks/"+itoa(first.ID), nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, foreign["success"])
	_, missing = bob.do(http.MethodDelete, "/tasks/99999", nil)
	require.Equal(t, missing, foreign)
	require.Len(t, alice.tasks(), 2)

	code, body = alice.do(http.MethodDelete, "/tasks/"+itoa(first.ID), nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Len(t, alice.tasks(), 1)

	anon := env.client(t)
	code, _ = anon.do(http.MethodGet, "/tasks/", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestChat_BroadcastAndPrivate(t *testing.T) {
	env := newEnv(t)
	aliceHTTP := env.client(t)
	aliceToken := aliceHTTP.signup("alice", "pw")
	bobToken := env.client(t).signup("bob", "pw")

	alice := env.dial(t, aliceToken)
	bob := env.dial(t, bobToken)
	env.waitOnline(t, 2)

	code, body := aliceHTTP.do(http.MethodGet, "/chat/online", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, []any{"alice", "bob"}, body["accounts"])

	send(t, alice, "all", "hi")
	require.Equal(t, "alice: hi", recv(t, alice))
	require.Equal(t, "alice: hi", recv(t, bob))

	send(t, alice, "bob", "yo")
	require.Equal(t, "(private)alice: yo", recv(t, bob))

	// a malformed frame is dropped without closing the connection
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))

	code, _ = aliceHTTP.do(http.MethodPost, "/user/username", map[string]string{"name": "Alice"})
	require.Equal(t, http.StatusOK, code)

	send(t, alice, "all", "done")
	// alice never saw the private message
	require.Equal(t, "Alice: done", recv(t, alice))
	require.Equal(t, "Alice: done", recv(t, bob))

	code, raw := env.client(t).raw(http.MethodGet, "/messages", nil)
	require.Equal(t, http.StatusOK, code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history, 2)
	require.Equal(t, "hi", history[0]["content"])
	require.Equal(t, "Alice", history[0]["name"])
	require.Equal(t, "alice", history[0]["account"])
	require.Equal(t, "done", history[1]["content"])

	require.NoError(t, bob.Close())
	env.waitOnline(t, 1)
}

func TestChat_RejectsBadToken(t *testing.T) {
	env := newEnv(t)
	conn := env.dial(t, "bogus")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	require.Zero(t, env.registry.Len())
}

func TestChat_SecondConnectionReplacesFirst(t *testing.T) {
	env := newEnv(t)
	token := env.client(t).signup("alice", "pw")

	first := env.dial(t, token)
	env.waitOnline(t, 1)
	second := env.dial(t, token)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	// the evicted handler's cleanup leaves the replacement registered
	env.waitOnline(t, 1)
	send(t, second, "all", "still here")
	require.Equal(t, "alice: still here", recv(t, second))
	require.Equal(t, 1, env.registry.Len())
}

func TestMessages_LimitReturnsNewestOldestFirst(t *testing.T) {
	env := newEnv(t)
	token := env.client(t).signup("alice", "pw")
	alice := env.dial(t, token)
	env.waitOnline(t, 1)

	for _, text := range []string{"1", "2", "3", "4", "5"} {
		send(t, alice, "all", text)
		require.Equal(t, "alice: "+text, recv(t, alice))
	}

	anon := env.client(t)
	code, raw := anon.raw(http.MethodGet, "/messages?limit=2", nil)
	require.Equal(t, http.StatusOK, code)
	var page []map[string]any
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page, 2)
	require.Equal(t, "4", page[0]["content"])
	require.Equal(t, "5", page[1]["content"])

	code, raw = anon.raw(http.MethodGet, "/messages?limit=abc", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page, 5)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newEnv(t)
	c := env.client(t)

	code, body := c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body["status"])

	code, raw := c.raw(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(raw), `taskchat_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
