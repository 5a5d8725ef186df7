package oidc

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

// tlsTransport builds a pooled transport that trusts the given CA PEM in
// addition to nothing else; providers with private CAs need it.
func tlsTransport(caPEM string) (*http.Transport, error) {
	const op = "oidc.tlsTransport"
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM([]byte(caPEM)); !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCACert)
	}
	tr := cleanhttp.DefaultPooledTransport()
	tr.TLSClientConfig = &tls.Config{
		RootCAs: pool,
	}
	return tr, nil
}
