package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/osinter/osinter/internal/domain"
	domuser "github.com/osinter/osinter/internal/domain/user"
	"github.com/osinter/osinter/internal/metrics"
)

type fakeAuthn struct {
	err       error
	lastEmail string
}

func (f *fakeAuthn) Authenticate(_ context.Context, username, password, email string) (*domuser.User, error) {
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	if password != "secret" {
		return nil, domain.ErrInvalidCredentials
	}
	u := domuser.Reconstruct("u-"+username, username, true, "hash", "", nil, nil, nil, "")
	return &u, nil
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(u.ID()))
	})
}

func serveAuth(t *testing.T, authn Authenticator, setup func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", "/auth/status", http.NoBody)
	if setup != nil {
		setup(req)
	}
	rr := httptest.NewRecorder()
	BasicAuthMiddleware(authn)(whoAmI()).ServeHTTP(rr, req)
	return rr
}

func TestBasicAuth_MissingHeader_401(t *testing.T) {
	rr := serveAuth(t, &fakeAuthn{}, nil)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorResponseCodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, ErrorResponseCodeUnauthorized)
	}
}

func TestBasicAuth_BearerScheme_401(t *testing.T) {
	rr := serveAuth(t, &fakeAuthn{}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer token")
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bearer scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestBasicAuth_WrongPassword_401(t *testing.T) {
	before := testutil.ToFloat64(metrics.AuthFailuresTotal.WithLabelValues(metrics.AuthRejected))
	rr := serveAuth(t, &fakeAuthn{}, func(r *http.Request) { r.SetBasicAuth("alice", "nope") })

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	var errResp ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&errResp)
	if errResp.Code != ErrorResponseCodeInvalidCredentials {
		t.Errorf("error code: got %s", errResp.Code)
	}
	if got := testutil.ToFloat64(metrics.AuthFailuresTotal.WithLabelValues(metrics.AuthRejected)); got != before+1 {
		t.Errorf("auth_failures_total{rejected} = %v, want %v", got, before+1)
	}
}

func TestBasicAuth_Valid_StoresUser(t *testing.T) {
	authn := &fakeAuthn{}
	rr := serveAuth(t, authn, func(r *http.Request) {
		r.SetBasicAuth("alice", "secret")
		r.Header.Set(EmailHeader, "a@example.org")
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("valid credentials: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != "u-alice" {
		t.Errorf("user in context: got %q", rr.Body.String())
	}
	if authn.lastEmail != "a@example.org" {
		t.Errorf("email header not forwarded: %q", authn.lastEmail)
	}
}

func TestBasicAuth_StoreDown_503(t *testing.T) {
	authn := &fakeAuthn{err: fmt.Errorf("auth lookup: %w", domain.ErrStoreUnavailable)}
	rr := serveAuth(t, authn, func(r *http.Request) { r.SetBasicAuth("alice", "secret") })

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("store down: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
