package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddMember(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		require.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewHTTPGroupClient(srv.URL, nil)
	err := client.AddMember(context.Background(), "svc-token", "guild-1", "user-9", "user-access")
	require.NoError(t, err)
	require.Equal(t, "/guilds/guild-1/members/user-9", gotPath)
	require.Equal(t, "Bot svc-token", gotAuth)
	require.Equal(t, "user-access", gotBody["access_token"])
}

func TestAddMemberAlreadyJoined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPGroupClient(srv.URL, nil)
	require.NoError(t, client.AddMember(context.Background(), "svc", "g", "u", "acc"))
}

func TestAddMemberFailureSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Missing Permissions"}`))
	}))
	defer srv.Close()

	client := NewHTTPGroupClient(srv.URL, nil)
	err := client.AddMember(context.Background(), "svc", "g", "u", "acc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Missing Permissions")
	require.Contains(t, err.Error(), "status=403")
}

func TestAssignRole(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "Bot svc-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPGroupClient(srv.URL, nil)
	err := client.AssignRole(context.Background(), "svc-token", "guild-1", "user-9", "role-3")
	require.NoError(t, err)
	require.Equal(t, "/guilds/guild-1/members/user-9/roles/role-3", gotPath)
}
