package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

const keyFetchTimeout = 10 * time.Second

// keyFetchError is a failure to reach Google's discovery or JWKS
// endpoints, as opposed to a token that does not verify.
type keyFetchError struct {
	err error
}

func (e *keyFetchError) Error() string {
	return "fetch google signing keys: " + e.err.Error()
}

func (e *keyFetchError) Unwrap() error {
	return e.err
}

// keyFetchTransport turns transport failures and non-200 answers into
// *keyFetchError so they survive go-oidc's error wrapping.
type keyFetchTransport struct {
	base http.RoundTripper
}

func (t keyFetchTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, &keyFetchError{err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &keyFetchError{err: fmt.Errorf("%s %s", req.URL.Redacted(), resp.Status)}
	}
	return resp, nil
}

func newKeyFetchClient(base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: keyFetchTransport{base: base},
		Timeout:   keyFetchTimeout,
	}
}

// newRemoteKeySet returns a cached JWKS key set whose fetch failures are
// reported as *keyFetchError.
func newRemoteKeySet(ctx context.Context, jwksURL string, base http.RoundTripper) oidc.KeySet {
	ctx = oidc.ClientContext(ctx, newKeyFetchClient(base))
	return oidc.NewRemoteKeySet(ctx, jwksURL)
}

type verifyReportKey struct{}

// verifyReport collects what the key set saw during one Verify call.
type verifyReport struct {
	keysErr *keyFetchError
}

// reportingKeySet records key fetch failures on the verifyReport carried
// by ctx. go-oidc flattens key set errors into strings, so the report is
// how Verify tells an outage from a bad signature.
type reportingKeySet struct {
	inner oidc.KeySet
}

func (k reportingKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := k.inner.VerifySignature(ctx, jwt)
	if err != nil {
		var fetchErr *keyFetchError
		if errors.As(err, &fetchErr) {
			if report, ok := ctx.Value(verifyReportKey{}).(*verifyReport); ok {
				report.keysErr = fetchErr
			}
		}
	}
	return payload, err
}

func newVerifier(keys oidc.KeySet, clientID string, now func() time.Time) *oidc.IDTokenVerifier {
	return oidc.NewVerifier(issuerURL, reportingKeySet{inner: keys}, &oidc.Config{
		ClientID: clientID,
		Now:      now,
	})
}
