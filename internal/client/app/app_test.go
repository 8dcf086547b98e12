package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bugboard/bugboard/internal/config"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend answers the login and issue list calls of the first scenario.
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok1", "id": 7, "role": []string{"ROLE_USER"}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/issues":
			if r.Header.Get("Authorization") != "Bearer tok1" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[{"id":1,"titolo":"A"},{"id":2,"titolo":"B"},{"id":3,"titolo":"C"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestApp_LoginFillsSessionAndStore(t *testing.T) {
	srv := backend(t)
	defer srv.Close()

	cfg := config.DefaultClient()
	cfg.BaseURL = srv.URL + "/api"
	a, err := New(cfg, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Run(ctx) }()

	require.True(t, a.Auth.Login(context.Background(), "a@b.io", "pwd"))
	a.Loop.Wait()

	assert.True(t, a.Session.IsLoggedIn())
	assert.False(t, a.Session.IsAdmin())
	require.Eventually(t, func() bool { return a.Store.Issues.Len() == 3 }, time.Second, 5*time.Millisecond)

	var titles []string
	require.NoError(t, a.Loop.Do(func() {
		for _, is := range a.Store.Issues.Snapshot() {
			titles = append(titles, is.Title)
		}
	}))
	assert.Equal(t, "A,B,C", strings.Join(titles, ","))
}

func TestApp_ExistsUserFailSafeOnUnreachableServer(t *testing.T) {
	cfg := config.DefaultClient()
	cfg.BaseURL = "http://127.0.0.1:1/api"
	cfg.ConnectTimeout = 200 * time.Millisecond
	a, err := New(cfg, nil, nil)
	require.NoError(t, err)

	ok, err := a.Users.ExistsUser(context.Background(), "x@y.z")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew_BadCAFile(t *testing.T) {
	cfg := config.DefaultClient()
	cfg.CAFile = "/does/not/exist.pem"
	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestApp_RoleFromSession(t *testing.T) {
	a, err := New(config.DefaultClient(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, a.Session.Login(models.User{Username: "root@x.y", Role: models.RoleAdmin}, "t"))
	assert.True(t, a.Session.IsAdmin())
}
