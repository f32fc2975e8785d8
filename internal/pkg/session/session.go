package session

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/tsunagi-works/tsunagi/internal/pkg/cache"
	"github.com/tsunagi-works/tsunagi/internal/pkg/env"
)

// SessionTimeout is the inactivity window after which a session is destroyed.
// RefreshInterval bounds how long a single session identifier stays valid;
// the identifier is rotated without logging the user out. RefreshInterval is
// deliberately much smaller than SessionTimeout so an active user never hits
// a raw expiry.
const (
	SessionTimeout  = 3600 * time.Second
	RefreshInterval = 300 * time.Second
)

// Session value keys.
const (
	KeyUserID    = "user_id"
	KeyUserEmail = "user_email"

	keyCreated      = "CREATED"
	keyLastActivity = "LAST_ACTIVITY"
)

// Info is the session status reported to the client.
type Info struct {
	UserID        uint   `json:"user_id"`
	UserEmail     string `json:"user_email"`
	RemainingTime int64  `json:"remaining_time"`
	Timeout       int64  `json:"timeout"`
}

// Manager wraps a fiber session store with the timeout and identifier
// rotation policy. Absence of authentication is always a normal return
// value, never an error.
type Manager struct {
	store *session.Store
}

// NewManager creates a session manager over the given store.
func NewManager(store *session.Store) *Manager {
	return &Manager{store: store}
}

// NewRedisStore builds the production session store: Redis storage on a
// database separate from the cache, cookie-bound with HTTP-only and
// SameSite=Lax flags, strict key lookup.
func NewRedisStore() *session.Store {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1, // separate database for sessions (cache uses DB 0)
		Reset:    false,
	})

	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   env.GetEnv("APP_SSL", "") == "true",
		Expiration:     SessionTimeout,
		KeyLookup:      "cookie:session_id",
	})
}

// Init starts the session for the request and applies the timeout check and
// identifier rotation, mirroring what every request is expected to run
// before touching session data.
func (m *Manager) Init(c *fiber.Ctx) {
	m.CheckTimeout(c)
	m.Rotate(c)
}

// CheckTimeout reports whether the session is still within the inactivity
// window. A session past the window is destroyed as a side effect. A live
// session gets its last-activity stamp refreshed, so every authenticated
// request silently extends the session.
func (m *Manager) CheckTimeout(c *fiber.Ctx) bool {
	sess, err := m.store.Get(c)
	if err != nil {
		return false
	}

	now := time.Now().Unix()
	if la, ok := sess.Get(keyLastActivity).(int64); ok {
		// a full timeout of inactivity ends the session; one second less
		// keeps it alive
		if now-la >= int64(SessionTimeout.Seconds()) {
			_ = sess.Destroy()
			return false
		}
	}

	sess.Set(keyLastActivity, now)
	_ = sess.Save()
	return true
}

// Rotate stamps the session creation time on first use and regenerates the
// session identifier once it is older than RefreshInterval. The session data
// survives; only the identifier value changes.
func (m *Manager) Rotate(c *fiber.Ctx) {
	sess, err := m.store.Get(c)
	if err != nil {
		return
	}

	now := time.Now().Unix()
	created, ok := sess.Get(keyCreated).(int64)
	if !ok {
		sess.Set(keyCreated, now)
		_ = sess.Save()
		return
	}

	if now-created > int64(RefreshInterval.Seconds()) {
		_ = sess.Regenerate()
		sess.Set(keyCreated, now)
		_ = sess.Save()
	}
}

// Login binds the user to the session. The identifier is regenerated
// unconditionally so a pre-login identifier can never carry an
// authenticated session (fixation prevention). Call only after credential
// verification succeeded.
func (m *Manager) Login(c *fiber.Ctx, userID uint, email string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}

	if err := sess.Regenerate(); err != nil {
		return err
	}

	now := time.Now().Unix()
	sess.Set(KeyUserID, userID)
	sess.Set(KeyUserEmail, email)
	sess.Set(keyCreated, now)
	sess.Set(keyLastActivity, now)
	return sess.Save()
}

// IsAuthenticated reports whether the request carries a live, bound session.
func (m *Manager) IsAuthenticated(c *fiber.Ctx) bool {
	if !m.CheckTimeout(c) {
		return false
	}
	return m.UserID(c) != 0
}

// UserID returns the bound user id, or 0 for an anonymous session.
func (m *Manager) UserID(c *fiber.Ctx) uint {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0
	}
	if id, ok := sess.Get(KeyUserID).(uint); ok {
		return id
	}
	return 0
}

// UserEmail returns the bound user email, or "".
func (m *Manager) UserEmail(c *fiber.Ctx) string {
	sess, err := m.store.Get(c)
	if err != nil {
		return ""
	}
	if email, ok := sess.Get(KeyUserEmail).(string); ok {
		return email
	}
	return ""
}

// Destroy clears all session data, invalidates the server-side session and
// expires the cookie client-side.
func (m *Manager) Destroy(c *fiber.Ctx) {
	sess, err := m.store.Get(c)
	if err != nil {
		return
	}
	_ = sess.Destroy()
}

// Info returns the session status, or nil when not authenticated.
func (m *Manager) Info(c *fiber.Ctx) *Info {
	if !m.IsAuthenticated(c) {
		return nil
	}

	// The timeout check above already refreshed the activity stamp, so the
	// reported remaining time reflects the extension this request granted.
	sess, err := m.store.Get(c)
	if err != nil {
		return nil
	}
	la, hasActivity := sess.Get(keyLastActivity).(int64)

	timeout := int64(SessionTimeout.Seconds())
	remaining := timeout
	if hasActivity {
		remaining = timeout - (time.Now().Unix() - la)
	}
	if remaining < 0 {
		remaining = 0
	}

	return &Info{
		UserID:        m.UserID(c),
		UserEmail:     m.UserEmail(c),
		RemainingTime: remaining,
		Timeout:       timeout,
	}
}
