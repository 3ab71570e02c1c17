package verify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialnet/internal/lib/verification"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	err      error
	gotToken string
}

func (f *fakeVerifier) VerifyEmail(_ context.Context, token string) error {
	f.gotToken = token
	return f.err
}

func doRequest(t *testing.T, verifier *fakeVerifier, token string) *httptest.ResponseRecorder {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Post("/api/auth/verify-email/{token}", New(log, verifier))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-email/"+token, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestVerifyHandler(t *testing.T) {
	verifier := &fakeVerifier{}

	rec := doRequest(t, verifier, "tok123")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email verified successfully")
	assert.Equal(t, "tok123", verifier.gotToken)
}

func TestVerifyHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"unknown token", verification.ErrTokenNotFound, http.StatusNotFound, "Invalid verification token"},
		{"already verified", verification.ErrAlreadyVerified, http.StatusBadRequest, "Email already verified"},
		{"expired token", verification.ErrTokenExpired, http.StatusBadRequest, "Verification token has expired"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, &fakeVerifier{err: tc.err}, "tok123")

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantMsg)
		})
	}
}
