package session

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHarness runs the manager against an in-memory store, driving it
// through real fiber requests so cookie handling behaves as in production.
type testHarness struct {
	app    *fiber.App
	store  *fibersession.Store
	m      *Manager
	cookie string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	store := fibersession.New(fibersession.Config{
		Expiration: SessionTimeout,
		KeyLookup:  "cookie:session_id",
	})
	h := &testHarness{
		app:   fiber.New(),
		store: store,
		m:     NewManager(store),
	}

	h.app.Post("/login", func(c *fiber.Ctx) error {
		if err := h.m.Login(c, 7, "taro@example.com"); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	})
	h.app.Get("/check", func(c *fiber.Ctx) error {
		if h.m.IsAuthenticated(c) {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.SendStatus(fiber.StatusUnauthorized)
	})
	h.app.Get("/info", func(c *fiber.Ctx) error {
		info := h.m.Info(c)
		if info == nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(info)
	})
	h.app.Post("/logout", func(c *fiber.Ctx) error {
		h.m.Destroy(c)
		return c.SendStatus(fiber.StatusOK)
	})

	// test-only backdoors to age the session without sleeping
	h.app.Post("/age-activity", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		secs, err := time.ParseDuration(c.Query("by"))
		if err != nil {
			return err
		}
		sess.Set(keyLastActivity, time.Now().Add(-secs).Unix())
		return sess.Save()
	})
	h.app.Post("/age-created", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		secs, err := time.ParseDuration(c.Query("by"))
		if err != nil {
			return err
		}
		sess.Set(keyCreated, time.Now().Add(-secs).Unix())
		return sess.Save()
	})
	h.app.Get("/session-id", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		return c.SendString(sess.ID())
	})
	h.app.Get("/rotate", func(c *fiber.Ctx) error {
		h.m.Init(c)
		if !h.m.IsAuthenticated(c) {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	return h
}

// do performs a request carrying the harness cookie and captures any
// replacement cookie the server sets.
func (h *testHarness) do(t *testing.T, method, target string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if h.cookie != "" {
		req.Header.Set("Cookie", "session_id="+h.cookie)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	for _, c := range resp.Cookies() {
		if c.Name == "session_id" && c.Value != "" {
			h.cookie = c.Value
		}
	}
	return resp
}

func (h *testHarness) sessionID(t *testing.T) string {
	t.Helper()

	resp := h.do(t, http.MethodGet, "/session-id")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func jsonDecode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func TestLoginBindsSession(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/check")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/login")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotEmpty(t, h.cookie)

	resp = h.do(t, http.MethodGet, "/check")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoginRotatesIdentifier(t *testing.T) {
	h := newHarness(t)

	// establish an anonymous session first
	resp := h.do(t, http.MethodGet, "/check")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	before := h.cookie
	require.NotEmpty(t, before)

	h.do(t, http.MethodPost, "/login")

	// the pre-login identifier must never carry the authenticated session
	assert.NotEqual(t, before, h.cookie)
}

func TestTimeoutDestroysSession(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/login")
	h.do(t, http.MethodPost, "/age-activity?by="+SessionTimeout.String())

	resp := h.do(t, http.MethodGet, "/check")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestActivityWithinWindowExtends(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/login")
	h.do(t, http.MethodPost, "/age-activity?by="+(SessionTimeout-2*time.Second).String())

	// still inside the window: the check passes and re-stamps
	resp := h.do(t, http.MethodGet, "/check")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// the re-stamp means another full window is now available
	h.do(t, http.MethodPost, "/age-activity?by="+(SessionTimeout-2*time.Second).String())
	resp = h.do(t, http.MethodGet, "/check")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRotateRefreshesStaleIdentifier(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/login")
	before := h.sessionID(t)
	require.NotEmpty(t, before)

	h.do(t, http.MethodPost, "/age-created?by="+(RefreshInterval+time.Second).String())

	resp := h.do(t, http.MethodGet, "/rotate")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// identifier changed, session data survived
	after := h.sessionID(t)
	assert.NotEqual(t, before, after)
	resp = h.do(t, http.MethodGet, "/check")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDestroyEndsSession(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/login")
	h.do(t, http.MethodPost, "/logout")

	resp := h.do(t, http.MethodGet, "/check")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestInfoReportsRemainingTime(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/info")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	h.do(t, http.MethodPost, "/login")

	resp = h.do(t, http.MethodGet, "/info")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var info Info
	require.NoError(t, jsonDecode(resp, &info))
	assert.Equal(t, uint(7), info.UserID)
	assert.Equal(t, "taro@example.com", info.UserEmail)
	assert.Equal(t, int64(SessionTimeout.Seconds()), info.Timeout)
	// the status check itself refreshed the stamp, so a full window remains
	assert.InDelta(t, info.Timeout, info.RemainingTime, 2)
}
