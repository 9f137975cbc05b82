package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-harvester/internal/config"
)

const loginFormHTML = `<html><body>
<form method="post" action="/mem/dispLogin">
  <input type="hidden" name="token" value="abc123">
  <input type="text" name="username">
  <input type="password" name="password">
</form>
</body></html>`

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		BaseURL:         baseURL,
		Username:        "user",
		Password:        "secret",
		SessionTimeout:  30 * time.Minute,
		PageLoadTimeout: 5 * time.Second,
		DownloadTimeout: 5 * time.Second,
	}
}

// erpStub simulates the login flow of the origin system.
type erpStub struct {
	mux        *http.ServeMux
	loginCount int
	lastForm   map[string]string
	denyLogin  bool
}

func newERPStub() *erpStub {
	s := &erpStub{mux: http.NewServeMux()}

	s.mux.HandleFunc("/mem/dispLogin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(loginFormHTML))
			return
		}
		_ = r.ParseForm()
		s.lastForm = map[string]string{}
		for k := range r.PostForm {
			s.lastForm[k] = r.PostForm.Get(k)
		}
		s.loginCount++
		if s.denyLogin || r.PostForm.Get("password") != "secret" {
			_, _ = w.Write([]byte(`<html><body><div class="err">Login failed: ID or password is wrong</div></body></html>`))
			return
		}
		http.Redirect(w, r, "/main", http.StatusFound)
	})

	s.mux.HandleFunc("/main", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/mem/dispLogout">Logout</a></body></html>`))
	})

	s.mux.HandleFunc("/candidate/dispView/100", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h2>Candidate Information - Jane Doe</h2></body></html>`))
	})

	s.mux.HandleFunc("/file/procDownload/key1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 fake body"))
	})

	return s
}

func TestHTTPClient_LoginSuccess(t *testing.T) {
	stub := newERPStub()
	server := httptest.NewServer(stub.mux)
	defer server.Close()

	c, err := newHTTPClient(testConfig(server.URL))
	require.NoError(t, err)

	require.NoError(t, c.Login(context.Background()))
	assert.True(t, c.authenticated)
	// Hidden anti-forgery field must survive the submission.
	assert.Equal(t, "abc123", stub.lastForm["token"])
	assert.Equal(t, "user", stub.lastForm["username"])
}

func TestHTTPClient_LoginFailureBanner(t *testing.T) {
	stub := newERPStub()
	stub.denyLogin = true
	server := httptest.NewServer(stub.mux)
	defer server.Close()

	c, err := newHTTPClient(testConfig(server.URL))
	require.NoError(t, err)

	err = c.Login(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, c.authenticated)
}

func TestHTTPClient_LoginAmbiguousIsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mem/dispLogin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(loginFormHTML))
			return
		}
		// Left the login URL but no vocabulary matches either way.
		http.Redirect(w, r, "/blank", http.StatusFound)
	})
	mux.HandleFunc("/blank", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>nothing to see</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := newHTTPClient(testConfig(server.URL))
	require.NoError(t, err)

	err = c.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestHTTPClient_StaleSessionRelogsIn(t *testing.T) {
	stub := newERPStub()
	server := httptest.NewServer(stub.mux)
	defer server.Close()

	c, err := newHTTPClient(testConfig(server.URL))
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background()))
	require.Equal(t, 1, stub.loginCount)

	// Push last activity beyond the timeout.
	c.now = func() time.Time { return time.Now().Add(time.Hour) }

	page, err := c.Get(context.Background(), server.URL+"/candidate/dispView/100")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "Jane Doe")
	assert.Equal(t, 2, stub.loginCount)
}

func TestHTTPClient_ReloginFailureIsSessionUnavailable(t *testing.T) {
	stub := newERPStub()
	server := httptest.NewServer(stub.mux)
	defer server.Close()

	c, err := newHTTPClient(testConfig(server.URL))
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background()))

	stub.denyLogin = true
	c.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err = c.Get(context.Background(), server.URL+"/candidate/dispView/100")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionUnavailable))

	// The reason the re-login failed must survive the wrapping.
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "failure marker")
}

func TestHTTPClient_DownloadStream(t *testing.T) {
	stub := newERPStub()
	server := httptest.NewServer(stub.mux)
	defer server.Close()

	c, err := newHTTPClient(testConfig(server.URL))
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background()))

	dest := filepath.Join(t.TempDir(), "resume.bin")
	require.NoError(t, c.DownloadStream(context.Background(), server.URL+"/file/procDownload/key1", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake body", string(data))
}

func TestHTTPClient_DownloadStreamBadStatus(t *testing.T) {
	stub := newERPStub()
	server := httptest.NewServer(stub.mux)
	defer server.Close()

	c, err := newHTTPClient(testConfig(server.URL))
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background()))

	dest := filepath.Join(t.TempDir(), "resume.bin")
	err = c.DownloadStream(context.Background(), server.URL+"/file/procDownload/missing", dest)
	require.Error(t, err)

	var dlErr *DownloadError
	assert.ErrorAs(t, err, &dlErr)
}

func TestClassifyLogin(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		html    string
		wantErr bool
	}{
		{"success marker", "/main", `<a href="/mem/dispLogout">Logout</a>`, false},
		{"still on login endpoint", "/mem/dispLogin", `logout`, true},
		{"failure marker wins", "/main", `logout but Login failed`, true},
		{"ambiguous", "/main", `hello`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyLogin(tc.url, tc.html)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNew_SelectsHTTPClient(t *testing.T) {
	cfg := testConfig("http://erp.example.com")
	c, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, ok := c.(*httpClient)
	assert.True(t, ok)
}
