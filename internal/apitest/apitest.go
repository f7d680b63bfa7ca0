// Package apitest holds helpers for exercising feature handlers over HTTP.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/huddle-app/backend/internal/middleware"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/kv"
)

// UserHeader carries the caller id in tests in place of a JWT.
const UserHeader = "X-Test-User"

// Result is a decoded response envelope.
type Result struct {
	Status int             `json:"-"`
	OK     bool            `json:"ok"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Kind   string          `json:"kind"`
}

// Decode unmarshals Data into v.
func (r Result) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), "data: %s", r.Data)
}

// NewStore returns a seeded store over an in-memory backend.
func NewStore(t *testing.T) *state.Store {
	t.Helper()
	s := state.New(kv.NewMemory(), state.Options{PasswordCost: bcrypt.MinCost})
	require.NoError(t, s.Bootstrap(context.Background()))
	return s
}

// NewRouter returns a gin engine in test mode whose requests are
// authenticated as the UserHeader value.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader(UserHeader); id != "" {
			c.Set(middleware.ContextUserID, id)
		}
		c.Next()
	})
	return r
}

// Do sends a request as userID with body encoded as JSON.
func Do(t *testing.T, h http.Handler, method, path, userID string, body interface{}) Result {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	res := Result{Status: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), "body: %s", w.Body.String())
	}
	return res
}
