package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrTooManyRedirects is wrapped into the client error when a target
// redirects more than the configured limit.
var ErrTooManyRedirects = fmt.Errorf("too many redirects")

// NewHttpClient builds the client used for endpoint probes. Neither the
// client nor the transport carries a timeout of its own: dial, TLS handshake
// and response are all bounded by the probe's request context, whose deadline
// is the endpoint's configured timeout.
func NewHttpClient(maxRedirects int) *http.Client {
	dialer := &net.Dialer{
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ExpectContinueTimeout: 1 * time.Second,

		MaxIdleConns:        1000,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, maxRedirects)
			}
			return nil
		},
	}
}
