package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenser/internal/log"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/cxf", 5*time.Second, staticTokens(token), log.New(log.DefaultConfig()))
}

func TestDoInjectsBearerAndContentType(t *testing.T) {
	var gotAuth, gotContentType, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{}`)
	}, "tok-abc")

	resp, err := client.Do(context.Background(), http.MethodPost, "/transaction", map[string]string{"name": "Coffee"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "/cxf/transaction", gotPath)
}

func TestDoWithoutBodyOmitsContentType(t *testing.T) {
	var gotContentType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		io.WriteString(w, `[]`)
	}, "")

	resp, err := client.Do(context.Background(), http.MethodGet, "/category", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Empty(t, gotContentType)
}

func TestDoWithoutSessionOmitsAuthorization(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{}`)
	}, "")

	_, err := client.Do(context.Background(), http.MethodPost, "/login", map[string]string{"username": "ada"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestNonOKIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error":"expense already deleted"}`)
	}, "tok")

	resp, err := client.Do(context.Background(), http.MethodDelete, "/transaction/9", nil)
	require.NoError(t, err, "non-2xx must not be a transport error")
	assert.False(t, resp.OK())
	require.Error(t, resp.Err())
	assert.Equal(t, "expense already deleted", resp.Err().Error())
}

func TestErrFallsBackToStatusText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `<html>gateway</html>`)
	}, "tok")

	resp, err := client.Do(context.Background(), http.MethodGet, "/income", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Err().Error(), http.StatusText(http.StatusBadGateway))
}

func TestUploadSendsMultipart(t *testing.T) {
	var gotFile []byte
	var gotName string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotName = header.Filename
		gotFile, _ = io.ReadAll(file)
		json.NewEncoder(w).Encode([]any{})
	}, "tok")

	content := []byte("spreadsheet-bytes")
	resp, err := client.Upload(context.Background(), "/bulk-import", "file", "transactions.xlsx", content)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "transactions.xlsx", gotName)
	assert.Equal(t, content, gotFile)
}

func TestTransportFailurePropagates(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/cxf", 500*time.Millisecond, staticTokens(""), log.New(log.DefaultConfig()))

	_, err := client.Do(context.Background(), http.MethodGet, "/category", nil)
	require.Error(t, err)
}
