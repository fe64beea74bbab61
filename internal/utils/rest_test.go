package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		message string
	}{
		{"bad request", http.StatusBadRequest, "invalid theme url"},
		{"unauthorized", http.StatusUnauthorized, "authentication required"},
		{"conflict", http.StatusConflict, "settings were modified concurrently"},
		{"rate limit", http.StatusTooManyRequests, "rate limit exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithError(w, tt.code, tt.message)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.message, response.Error)
		})
	}
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()

	payload := map[string]any{
		"shouldShowOnboarding": true,
		"themes":               []string{"https://a.example/theme.css"},
	}
	require.NoError(t, RespondWithJSON(w, http.StatusOK, payload))
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, true, response["shouldShowOnboarding"])
}

func TestRespondNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	RespondNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		URL string `json:"url"`
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
		want    string
	}{
		{"valid", `{"url":"https://x.example"}`, false, "https://x.example"},
		{"empty", ``, true, ""},
		{"unknown field", `{"url":"a","extra":1}`, true, ""},
		{"trailing value", `{"url":"a"}{"url":"b"}`, true, ""},
		{"malformed", `{"url":`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input))
			var dst body
			err := DecodeJSON(req, &dst)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dst.URL)
		})
	}
}

func TestDeref(t *testing.T) {
	assert.Equal(t, "x", Deref(StringPtr("x"), "def"))
	assert.Equal(t, "def", Deref[string](nil, "def"))
	assert.Equal(t, 3, *Ptr(3))
	assert.Equal(t, "", StringPtrValue(nil))
}
