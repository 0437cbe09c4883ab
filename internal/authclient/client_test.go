package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IlyaM70/JustMessanger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_UserExists(t *testing.T) {
	ctx := context.Background()

	t.Run("200 means the user exists", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte("User found"))
		}))
		defer srv.Close()

		client := New(srv.URL)
		assert.True(t, client.UserExists(ctx, "42"))
		assert.Equal(t, "/api/auth/userexist/42", gotPath)
	})

	t.Run("404 means the user does not exist", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "User was not found", http.StatusNotFound)
		}))
		defer srv.Close()

		assert.False(t, New(srv.URL).UserExists(ctx, "42"))
	})

	t.Run("server error fails closed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		assert.False(t, New(srv.URL).UserExists(ctx, "42"))
	})

	t.Run("network failure fails closed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		assert.False(t, New(srv.URL).UserExists(ctx, "42"))
	})

	t.Run("user id is path escaped", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
		}))
		defer srv.Close()

		New(srv.URL).UserExists(ctx, "a/b")
		assert.Equal(t, "/api/auth/userexist/a%2Fb", gotPath)
	})
}

func TestClient_FillContacts(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/auth/fillcontacts", r.URL.Path)

			var contacts []model.Contact
			require.NoError(t, json.NewDecoder(r.Body).Decode(&contacts))
			for i := range contacts {
				contacts[i].Username = "name-" + contacts[i].UserID
			}
			_ = json.NewEncoder(w).Encode(contacts)
		}))
		defer srv.Close()

		filled, err := New(srv.URL).FillContacts(ctx, []model.Contact{{UserID: "1"}, {UserID: "2"}})
		require.NoError(t, err)
		require.Len(t, filled, 2)
		assert.Equal(t, "name-1", filled[0].Username)
		assert.Equal(t, "name-2", filled[1].Username)
	})

	t.Run("non-200 surfaces an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := New(srv.URL).FillContacts(ctx, []model.Contact{{UserID: "1"}})
		assert.Error(t, err)
	})

	t.Run("network failure surfaces an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := New(srv.URL).FillContacts(ctx, []model.Contact{{UserID: "1"}})
		assert.Error(t, err)
	})
}
