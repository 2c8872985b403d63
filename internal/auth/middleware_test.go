package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

func serveWithIdentityCapture(mw func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, *shared.Identity) {
	var captured *shared.Identity
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = shared.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res, captured
}

func TestMiddlewareNoHeaderPassesThrough(t *testing.T) {
	svc, _, _ := newTestService(t)
	mw := Middleware(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	res, identity := serveWithIdentityCapture(mw, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, identity)
}

func TestMiddlewareValidToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	mw := Middleware(svc, nil)

	pair, err := svc.IssueTokenPair(context.Background(), 10, roleIDPtr(5))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Token)
	res, identity := serveWithIdentityCapture(mw, req)

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, identity)
	assert.EqualValues(t, 10, identity.SubjectID)
}

func TestMiddlewareRejectsBadHeader(t *testing.T) {
	svc, _, _ := newTestService(t)
	mw := Middleware(svc, nil)

	for _, header := range []string{"Bearer", "Basic dXNlcjpwYXNz", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		req.Header.Set("Authorization", header)
		res, identity := serveWithIdentityCapture(mw, req)

		assert.Equal(t, http.StatusUnauthorized, res.Code, "header %q", header)
		assert.Nil(t, identity)
	}
}

func TestMiddlewareCaseInsensitiveScheme(t *testing.T) {
	svc, _, _ := newTestService(t)
	mw := Middleware(svc, nil)

	pair, err := svc.IssueTokenPair(context.Background(), 10, roleIDPtr(5))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Header.Set("Authorization", "bearer "+pair.Token)
	res, identity := serveWithIdentityCapture(mw, req)

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, identity)
}
