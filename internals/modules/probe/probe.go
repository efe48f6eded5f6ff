package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"endpoint-monitor/pkg/apperror"
	"endpoint-monitor/pkg/httpclient"

	"github.com/guregu/null/v5"
)

// maxDrainBytes bounds how much of a response body is read so the
// connection can be reused.
const maxDrainBytes = 64 << 10

type Prober struct {
	client    *http.Client
	userAgent string
	grace     time.Duration
	now       func() time.Time
}

// NewProber wraps client. grace is added to every per-call timeout.
func NewProber(client *http.Client, userAgent string, grace time.Duration) *Prober {
	return &Prober{
		client:    client,
		userAgent: userAgent,
		grace:     grace,
		now:       time.Now,
	}
}

// Probe issues one GET against rawURL and aborts it at timeout. Target
// failures are reported in the Outcome; the error is non-nil only when
// rawURL cannot form a request at all.
func (p *Prober) Probe(ctx context.Context, rawURL string, timeout time.Duration, headers map[string]string) (Outcome, error) {
	const op = "probe.http.probe"

	if err := validateURL(rawURL); err != nil {
		return Outcome{}, apperror.New(apperror.InvalidInput, op, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+p.grace)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Outcome{}, apperror.New(apperror.InvalidInput, op, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if p.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	start := p.now()
	resp, err := p.client.Do(req)
	if err != nil {
		elapsed := p.now().Sub(start)
		return Failed(classifyError(reqCtx, err), err.Error(), elapsed), nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	elapsed := p.now().Sub(start)

	out := Outcome{
		StatusCode: null.IntFrom(int64(resp.StatusCode)),
		Elapsed:    elapsed,
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		out.Success = true
		return out, nil
	}
	out.ErrorMessage = null.StringFrom(fmt.Sprintf("unexpected status code %d", resp.StatusCode))
	out.ErrorType = null.StringFrom(ErrHTTPStatus)
	return out, nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func classifyError(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, httpclient.ErrTooManyRedirects) {
		return ErrTooManyRedirects
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrConnRefused
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrConnReset
	}

	var (
		recordErr   tls.RecordHeaderError
		certErr     *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &certErr) || errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return ErrTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetwork
	}
	return ErrUnknown
}
