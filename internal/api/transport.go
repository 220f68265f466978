package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/pkg/utilities"
)

// TokenSource yields the current bearer credential. An empty string
// means no credential is stored.
type TokenSource interface {
	Credential() string
}

// AuthTransport decorates outbound requests with the bearer credential
// and a request correlation id, and reacts to authorization failures.
// The original request is never mutated; headers are set on a clone.
//
// On a 401 response OnAuthFailure fires exactly once for that response
// before the response is handed back to the caller. The failure itself
// is never swallowed here: the caller still sees the 401.
type AuthTransport struct {
	Base          http.RoundTripper
	Tokens        TokenSource
	OnAuthFailure func()
	Logger        *zap.SugaredLogger
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	out := req.Clone(req.Context())
	if t.Tokens != nil {
		if cred := t.Tokens.Credential(); cred != "" {
			out.Header.Set("Authorization", "Bearer "+cred)
		}
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", utilities.NewKSUID())
	}

	resp, err := base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && t.OnAuthFailure != nil {
		if t.Logger != nil {
			t.Logger.Warnw("authorization failure, forcing logout",
				"path", req.URL.Path,
				"request_id", out.Header.Get("X-Request-ID"),
			)
		}
		t.OnAuthFailure()
	}
	return resp, nil
}
