package register

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialnet/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	result auth.RegisterResult
	err    error
}

func (f *fakeRegistrar) Register(_ context.Context, _, _, _, _ string) (auth.RegisterResult, error) {
	return f.result, f.err
}

func newHandler(registrar *fakeRegistrar) http.HandlerFunc {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, validator.New(), registrar)
}

func doRequest(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestRegisterHandler(t *testing.T) {
	userID := uuid.New()
	registrar := &fakeRegistrar{
		result: auth.RegisterResult{UserID: userID, VerificationToken: "tok123"},
	}

	rec := doRequest(t, newHandler(registrar),
		`{"email":"a@b.com","username":"username1","full_name":"Full Name","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "User registered successfully. Please verify your email.", got.Message)
	assert.Equal(t, "tok123", got.VerificationToken)
	assert.Equal(t, userID.String(), got.UserID)
}

func TestRegisterHandler_Conflicts(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"username taken", auth.ErrUsernameTaken, "Username already exists"},
		{"email taken", auth.ErrEmailTaken, "Email already exists"},
		{"save race", auth.ErrUserExists, "User already exists"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, newHandler(&fakeRegistrar{err: tc.err}),
				`{"email":"a@b.com","username":"username1","full_name":"Full Name","password":"secret1"}`)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantMsg)
		})
	}
}

func TestRegisterHandler_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing email", `{"username":"username1","full_name":"Full Name","password":"secret1"}`},
		{"bad email", `{"email":"not-an-email","username":"username1","full_name":"Full Name","password":"secret1"}`},
		{"short username", `{"email":"a@b.com","username":"short","full_name":"Full Name","password":"secret1"}`},
		{"missing password", `{"email":"a@b.com","username":"username1","full_name":"Full Name"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, newHandler(&fakeRegistrar{}), tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
