package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
	"unicode/utf8"

	"endpoint-monitor/pkg/apperror"
	"endpoint-monitor/pkg/httpclient"
)

func newTestProber() *Prober {
	return NewProber(httpclient.NewHttpClient(3), "endpoint-monitor/test", 0)
}

func TestProbe_Success(t *testing.T) {
	var gotHeader, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Api-Key")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out, err := newTestProber().Probe(context.Background(), srv.URL, time.Second, map[string]string{"X-Api-Key": "secret"})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !out.Success || out.StatusCode.Int64 != http.StatusNoContent {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.ErrorType.Valid || out.ErrorMessage.Valid {
		t.Errorf("success must not carry error fields: %+v", out)
	}
	if gotHeader != "secret" {
		t.Errorf("header not forwarded, got %q", gotHeader)
	}
	if gotUA != "endpoint-monitor/test" {
		t.Errorf("user agent = %q", gotUA)
	}
}

func TestProbe_Non2xxIsFailureWithStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out, err := newTestProber().Probe(context.Background(), srv.URL, time.Second, nil)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if out.Success {
		t.Fatal("503 must not be success")
	}
	if !out.StatusCode.Valid || out.StatusCode.Int64 != http.StatusServiceUnavailable {
		t.Errorf("status code = %+v", out.StatusCode)
	}
	if out.ErrorType.String != ErrHTTPStatus || !out.ErrorMessage.Valid {
		t.Errorf("unexpected error fields: %+v", out)
	}
}

func TestProbe_HardTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	out, err := newTestProber().Probe(context.Background(), srv.URL, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if wall := time.Since(start); wall > time.Second {
		t.Fatalf("probe not aborted at its deadline, took %v", wall)
	}
	if out.Success || out.StatusCode.Valid {
		t.Fatalf("timeout must be a failure without status code: %+v", out)
	}
	if out.ErrorType.String != ErrTimeout {
		t.Errorf("error type = %q, want %q", out.ErrorType.String, ErrTimeout)
	}
}

// A target that accepts TCP but never answers the TLS handshake must be given
// the whole endpoint timeout, not a transport default.
func TestProbe_StalledTLSHandshakeUsesEndpointTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a 6s timeout")
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				<-done
				conn.Close()
			}()
		}
	}()

	const timeout = 6 * time.Second
	out, err := newTestProber().Probe(context.Background(), "https://"+ln.Addr().String(), timeout, nil)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if out.Success {
		t.Fatalf("stalled handshake cannot succeed: %+v", out)
	}
	if out.Elapsed < timeout-100*time.Millisecond {
		t.Fatalf("probe gave up after %v, before its %v timeout (%s)", out.Elapsed, timeout, out.ErrorMessage.String)
	}
	if out.ErrorType.String != ErrTimeout {
		t.Errorf("error type = %q, want %q", out.ErrorType.String, ErrTimeout)
	}
}

func TestFailed_TruncatesOnRuneBoundary(t *testing.T) {
	msg := strings.Repeat("a", maxErrorMessageBytes-1) + "é"
	out := Failed(ErrNetwork, msg, 0)
	got := out.ErrorMessage.String
	if len(got) > maxErrorMessageBytes {
		t.Fatalf("len = %d, want <= %d", len(got), maxErrorMessageBytes)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8")
	}
	if got != strings.Repeat("a", maxErrorMessageBytes-1) {
		t.Errorf("expected the split rune to be dropped whole")
	}

	out = Failed(ErrNetwork, "bad \xff byte\x00", 0)
	if s := out.ErrorMessage.String; !utf8.ValidString(s) || strings.Contains(s, "\x00") {
		t.Errorf("message not sanitised: %q", s)
	}
}

func TestProbe_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	out, err := newTestProber().Probe(context.Background(), "http://"+addr, time.Second, nil)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if out.Success || out.StatusCode.Valid {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.ErrorType.String != ErrConnRefused {
		t.Errorf("error type = %q, want %q", out.ErrorType.String, ErrConnRefused)
	}
}

func TestProbe_RedirectLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	out, err := newTestProber().Probe(context.Background(), srv.URL, time.Second, nil)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if out.Success || out.ErrorType.String != ErrTooManyRedirects {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestProbe_MalformedURLIsAnError(t *testing.T) {
	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := newTestProber().Probe(context.Background(), raw, time.Second, nil)
			if !apperror.IsKind(err, apperror.InvalidInput) {
				t.Fatalf("want invalid_input error, got %v", err)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, ErrDNS},
		{"refused", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, ErrConnRefused},
		{"reset", &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, ErrConnReset},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrTimeout},
		{"redirects", fmt.Errorf("get: %w", httpclient.ErrTooManyRedirects), ErrTooManyRedirects},
		{"other", errors.New("boom"), ErrUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyError(ctx, tc.err); got != tc.want {
				t.Errorf("classifyError = %q, want %q", got, tc.want)
			}
		})
	}
}
