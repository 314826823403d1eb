package github

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListPullFiles(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		switch r.URL.Path {
		case "/repos/acme/blog/pulls/42/files":
			resp := []map[string]interface{}{
				{
					"filename": "public/index.php",
					"status":   "modified",
					"patch":    "@@ -1,2 +1,2 @@\n- old\n+ new\n",
					"raw_url":  "https://example.com/raw/index.php",
				},
				{
					"filename":          "web/app.js",
					"previous_filename": "web/main.js",
					"status":            "renamed",
				},
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c, err := NewClient("token-123", server.URL)
	require.NoError(t, err)

	files, err := c.ListPullFiles("acme", "blog", 42)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Bearer token-123", gotAuth)

	assert.Equal(t, "public/index.php", files[0].NewPath)
	assert.Contains(t, files[0].Patch, "+ new")
	assert.Equal(t, "https://example.com/raw/index.php", files[0].RawURL)

	assert.Equal(t, "web/main.js", files[1].OldPath)
	assert.Equal(t, "web/app.js", files[1].NewPath)
	assert.Equal(t, "renamed", files[1].Status)
	assert.Empty(t, files[1].Patch)
}

func TestClient_FetchRawFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/raw/ok.go":
			_, _ = w.Write([]byte("package main\n"))
		case "/raw/gone.go":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c, err := NewClient("token", server.URL)
	require.NoError(t, err)

	content, err := c.FetchRawFile(server.URL + "/raw/ok.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)

	// Missing raw content is a fallback signal, not an error.
	content, err = c.FetchRawFile(server.URL + "/raw/gone.go")
	require.NoError(t, err)
	assert.Empty(t, content)

	content, err = c.FetchRawFile("")
	require.NoError(t, err)
	assert.Empty(t, content)

	_, err = c.FetchRawFile(server.URL + "/raw/boom.go")
	assert.Error(t, err)
}

func TestClient_ListPullComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/blog/pulls/7/comments", r.URL.Path)
		resp := []map[string]interface{}{
			{
				"id":   101,
				"body": "please handle the error",
				"path": "svc/handler.go",
				"line": 12,
				"user": map[string]interface{}{"login": "octo"},
			},
			{
				"id":            102,
				"body":          "outdated comment",
				"path":          "svc/old.go",
				"line":          0,
				"original_line": 30,
				"user":          map[string]interface{}{"login": "cat"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := NewClient("token", server.URL)
	require.NoError(t, err)

	comments, err := c.ListPullComments("acme", "blog", 7)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, int64(101), comments[0].ID)
	assert.Equal(t, "octo", comments[0].Author)
	assert.Equal(t, 12, comments[0].Line)

	// Outdated comments fall back to their original line.
	assert.Equal(t, 30, comments[1].Line)
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("", "")
	assert.Error(t, err)
}
