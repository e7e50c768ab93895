package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPhoto(t *testing.T) {
	var gotPath, gotChat, gotCaption, gotFilename string
	var gotImage []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotChat = r.FormValue("chat_id")
		gotCaption = r.FormValue("caption")
		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotImage, _ = io.ReadAll(file)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	err := client.SendPhoto(context.Background(), "123:abc", "-1001", "performance.png", []byte("png-bytes"), "Portfolio Update 2024-03-05 16:30")
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendPhoto", gotPath)
	assert.Equal(t, "-1001", gotChat)
	assert.Equal(t, "Portfolio Update 2024-03-05 16:30", gotCaption)
	assert.Equal(t, "performance.png", gotFilename)
	assert.Equal(t, []byte("png-bytes"), gotImage)
}

func TestSendPhoto_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := NewClient(WithBaseURL(srv.URL)).SendPhoto(context.Background(), "t", "c", "a.png", []byte{1}, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Bad Request: chat not found", apiErr.Description)
}

func TestSendPhoto_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Forbidden"}`))
	}))
	defer srv.Close()

	err := NewClient(WithBaseURL(srv.URL)).SendPhoto(context.Background(), "t", "c", "a.png", []byte{1}, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Forbidden", apiErr.Description)
}

func TestSendPhoto_Validation(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))
	assert.Error(t, client.SendPhoto(context.Background(), "", "c", "a.png", nil, ""))
	assert.Error(t, client.SendPhoto(context.Background(), "t", "", "a.png", nil, ""))
}

func TestSendPhoto_TokenNotLeaked(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))
	err := client.SendPhoto(context.Background(), "secret-token", "c", "a.png", []byte{1}, "")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "secret-token"))
}

func TestSendPhoto_CaptionTruncated(t *testing.T) {
	var gotCaption string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotCaption = r.FormValue("caption")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	long := strings.Repeat("x", captionLimit+10)
	require.NoError(t, NewClient(WithBaseURL(srv.URL)).SendPhoto(context.Background(), "t", "c", "a.png", []byte{1}, long))
	assert.Len(t, gotCaption, captionLimit)
}
