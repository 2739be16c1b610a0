package record

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.paths = append(u.paths, r.URL.RequestURI())
		u.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "upstream says hi")
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) served() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.paths))
	copy(out, u.paths)
	return out
}

func upstreamPort(t *testing.T, serverURL string) uint16 {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	port, err := strconv.ParseUint(u.Port(), 10, 16)
	require.NoError(t, err)
	return uint16(port)
}

func newProxy(t *testing.T, rec *Recorder) *httptest.Server {
	t.Helper()
	proxy := httptest.NewServer(rec.Handler())
	t.Cleanup(proxy.Close)
	return proxy
}

func TestRecorder_CapturesForwardedRequests(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL)
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	resp, err := http.Get(proxy.URL + "/items?page=2")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	// The response passed through untouched.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "upstream says hi", string(body))
	assert.Equal(t, []string{"/items?page=2"}, up.served())

	requests := rec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "127.0.0.1", requests[0].Target)
	assert.Equal(t, upstreamPort(t, up.URL), requests[0].Port)
	assert.Equal(t, "/items?page=2", requests[0].Endpoint)
	assert.Equal(t, "GET", requests[0].Method)
	assert.NoError(t, requests[0].Validate())
}

func TestRecorder_ArrivalOrder(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL)
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	for _, path := range []string{"/first", "/second", "/third"} {
		resp, err := http.Get(proxy.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	requests := rec.Requests()
	require.Len(t, requests, 3)
	assert.Equal(t, "/first", requests[0].Endpoint)
	assert.Equal(t, "/second", requests[1].Endpoint)
	assert.Equal(t, "/third", requests[2].Endpoint)
}

func TestRecorder_FormBody(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL)
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	resp, err := http.Post(proxy.URL+"/login", "application/x-www-form-urlencoded",
		strings.NewReader("user=admin&pass=secret"))
	require.NoError(t, err)
	resp.Body.Close()

	requests := rec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, map[string]string{"user": "admin", "pass": "secret"}, requests[0].Data)
}

func TestRecorder_JSONBody(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL)
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	resp, err := http.Post(proxy.URL+"/items", "application/json",
		strings.NewReader(`{"name":"widget","count":3}`))
	require.NoError(t, err)
	resp.Body.Close()

	requests := rec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, map[string]string{"name": "widget", "count": "3"}, requests[0].Data)
}

func TestRecorder_UnrepresentableBodyOmitted(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL)
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	resp, err := http.Post(proxy.URL+"/blob", "application/octet-stream",
		strings.NewReader("\x00\x01\x02"))
	require.NoError(t, err)
	resp.Body.Close()

	// Request still recorded and forwarded, just without a body.
	requests := rec.Requests()
	require.Len(t, requests, 1)
	assert.Nil(t, requests[0].Data)
	assert.Equal(t, []string{"/blob"}, up.served())
}

func TestRecorder_RedactsCredentialHeaders(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL)
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	req, err := http.NewRequest(http.MethodGet, proxy.URL+"/private", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer topsecret")
	req.Header.Set("X-Team", "platform")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	requests := rec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "REDACTED", requests[0].Headers["Authorization"])
	assert.Equal(t, "platform", requests[0].Headers["X-Team"])
}

func TestRecorder_DropsTransportHeaders(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL)
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	// The default client adds Accept-Encoding on its own.
	resp, err := http.Get(proxy.URL + "/plain")
	require.NoError(t, err)
	resp.Body.Close()

	requests := rec.Requests()
	require.Len(t, requests, 1)
	for key := range requests[0].Headers {
		assert.False(t, strings.EqualFold(key, "Accept-Encoding"), "recorded %s", key)
		assert.False(t, strings.EqualFold(key, "Connection"), "recorded %s", key)
		assert.False(t, strings.EqualFold(key, "Content-Length"), "recorded %s", key)
	}
}

func TestRecorder_ExcludeStillForwards(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL, WithExclude([]string{"/health"}))
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	for _, path := range []string{"/health", "/api"} {
		resp, err := http.Get(proxy.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, []string{"/health", "/api"}, up.served())

	requests := rec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/api", requests[0].Endpoint)
}

func TestRecorder_Dedupe(t *testing.T) {
	up := newUpstream(t)
	rec, err := NewRecorder(up.URL, WithDedupe(true))
	require.NoError(t, err)
	proxy := newProxy(t, rec)

	for i := 0; i < 3; i++ {
		resp, err := http.Get(proxy.URL + "/same")
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Len(t, rec.Requests(), 1)
	assert.Len(t, up.served(), 3)
}

func TestNewRecorder_RejectsNonHTTPTargets(t *testing.T) {
	_, err := NewRecorder("https://prod.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain HTTP")

	_, err = NewRecorder("ftp://files.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}
