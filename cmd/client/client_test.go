package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "gitlab.com/dirk.krummacker/surf-contacts/pkg/model"
)

func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "leads.csv", files[0].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "Name,Phone\nAnn,1\n", string(content))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "summary": {"totalProcessed": 1, "newContacts": 1, "updatedContacts": 0}}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Phone\nAnn,1\n"), 0o600))

	response, err := newAPIClient(server.URL, time.Second).upload([]string{path})
	require.NoError(t, err)
	assert.Equal(t, api.ImportSummary{TotalProcessed: 1, NewContacts: 1}, response.Summary)
}

func TestListQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "contacted=false&limit=20&page=2&search=kite", r.URL.RawQuery)
		json.NewEncoder(w).Encode(api.ContactList{
			Contacts:   []api.Contact{{Id: 3, Name: "Kite Base", Phone: "777"}},
			Pagination: api.Pagination{Page: 2, Limit: 20, Total: 21, TotalPages: 2},
		})
	}))
	defer server.Close()

	list, err := newAPIClient(server.URL, time.Second).list(listParams{page: 2, limit: 20, contacted: "false", search: "kite"})
	require.NoError(t, err)
	require.Len(t, list.Contacts, 1)
	assert.Equal(t, "Kite Base", list.Contacts[0].Name)
	assert.Equal(t, int64(2), list.Pagination.TotalPages)
}

func TestMarkReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update api.StatusUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		assert.Equal(t, api.StatusUpdate{Id: 9, Contacted: true}, update)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Contact not found", "code": "not_found"}`))
	}))
	defer server.Close()

	_, err := newAPIClient(server.URL, time.Second).mark(9, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Contact not found")
	assert.Contains(t, err.Error(), "404")
}

func TestWelcomeDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contacts/5/generate-pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="welcome-Ann.pdf"`)
		w.Write([]byte("%PDF-1.3 test"))
	}))
	defer server.Close()

	dir := t.TempDir()
	path, err := newAPIClient(server.URL, time.Second).welcome(5, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "welcome-Ann.pdf"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestParseID(t *testing.T) {
	id, err := parseID("56")
	require.NoError(t, err)
	assert.Equal(t, int64(56), id)

	for _, value := range []string{"0", "-1", "abc", ""} {
		_, err := parseID(value)
		assert.Error(t, err, value)
	}
}
