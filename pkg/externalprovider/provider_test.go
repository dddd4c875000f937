package externalprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "plannr-web.apps.googleusercontent.com"

func tokenInfoServer(t *testing.T, status int, body map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "good-token", r.URL.Query().Get("id_token"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGoogleVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidToken", func(t *testing.T) {
		srv, calls := tokenInfoServer(t, http.StatusOK, map[string]string{
			"sub":            "g-1",
			"email":          "ana@x.io",
			"email_verified": "true",
			"name":           "Ana",
			"picture":        "https://img/ana.png",
			"aud":            testClientID,
		})
		v := NewGoogleVerifier(testClientID, WithTokenInfoURL(srv.URL))

		info, err := v.Verify(ctx, "good-token")
		require.NoError(t, err)
		assert.Equal(t, ProviderGoogle, info.ProviderID)
		assert.Equal(t, "g-1", info.ExternalID)
		assert.Equal(t, "ana@x.io", info.Email)
		assert.True(t, info.EmailVerified)
		assert.Equal(t, "Ana", info.Name)
		assert.Equal(t, "https://img/ana.png", info.Picture)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("MissingNameUsesEmailLocalPart", func(t *testing.T) {
		srv, _ := tokenInfoServer(t, http.StatusOK, map[string]string{
			"sub": "g-2", "email": "bo@x.io", "aud": testClientID,
		})
		v := NewGoogleVerifier(testClientID, WithTokenInfoURL(srv.URL))

		info, err := v.Verify(ctx, "good-token")
		require.NoError(t, err)
		assert.Equal(t, "bo", info.Name)
	})

	t.Run("RejectedByGoogle", func(t *testing.T) {
		srv, calls := tokenInfoServer(t, http.StatusBadRequest, map[string]string{"error": "invalid_token"})
		v := NewGoogleVerifier(testClientID, WithTokenInfoURL(srv.URL))

		_, err := v.Verify(ctx, "good-token")
		assert.ErrorIs(t, err, ErrInvalidCredential)
		assert.Equal(t, int32(1), calls.Load(), "no retries")
	})

	t.Run("AudienceMismatch", func(t *testing.T) {
		srv, _ := tokenInfoServer(t, http.StatusOK, map[string]string{
			"sub": "g-3", "email": "c@x.io", "aud": "someone-else",
		})
		v := NewGoogleVerifier(testClientID, WithTokenInfoURL(srv.URL))

		_, err := v.Verify(ctx, "good-token")
		assert.ErrorIs(t, err, ErrAudienceMismatch)
	})

	t.Run("AudienceUncheckedWithoutClientID", func(t *testing.T) {
		srv, _ := tokenInfoServer(t, http.StatusOK, map[string]string{
			"sub": "g-3", "email": "c@x.io", "aud": "someone-else",
		})
		v := NewGoogleVerifier("", WithTokenInfoURL(srv.URL))

		_, err := v.Verify(ctx, "good-token")
		assert.NoError(t, err)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		srv, _ := tokenInfoServer(t, http.StatusOK, map[string]string{
			"sub": "g-4", "aud": testClientID,
		})
		v := NewGoogleVerifier(testClientID, WithTokenInfoURL(srv.URL))

		_, err := v.Verify(ctx, "good-token")
		assert.ErrorIs(t, err, ErrIncompleteProfile)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		srv, _ := tokenInfoServer(t, http.StatusOK, map[string]string{
			"email": "d@x.io", "aud": testClientID,
		})
		v := NewGoogleVerifier(testClientID, WithTokenInfoURL(srv.URL))

		_, err := v.Verify(ctx, "good-token")
		assert.ErrorIs(t, err, ErrIncompleteProfile)
	})

	t.Run("EmptyCredential", func(t *testing.T) {
		v := NewGoogleVerifier(testClientID, WithTokenInfoURL("http://127.0.0.1:0"))
		_, err := v.Verify(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("Timeout", func(t *testing.T) {
		done := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-done:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(done) })

		v := NewGoogleVerifier(testClientID, WithTokenInfoURL(srv.URL), WithTimeout(50*time.Millisecond))
		_, err := v.Verify(ctx, "good-token")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}
