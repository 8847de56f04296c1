package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/felixgeelhaar/summitforms/internal/testutil"
)

// executeCommand runs the root command with args and returns everything it
// wrote. Global flag values are reset first since cobra keeps them between
// runs.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags() {
	cfgFile = ""
	verbose = false
	baseURL = ""
	logLevel = ""
	logFormat = ""
	noReceipts = false
	formAnswers = ""
	formImages = nil
	formInteractive = false
	formDryRun = false
	mcpHTTP = ""
}

// fakeAPI is a scripted remote API recording the paths it was asked for.
type fakeAPI struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
	replies  map[string]reply
}

type reply struct {
	status int
	body   string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{replies: make(map[string]reply)}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r.Method+" "+r.URL.Path)
		rep, ok := api.replies[r.URL.Path]
		api.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		_, _ = w.Write([]byte(rep.body))
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) reply(path string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies[path] = reply{status: status, body: body}
}

func (a *fakeAPI) count(prefix string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, r := range a.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// writeSettings writes a settings file pointing at api and returns its path
// and the receipts journal path.
func writeSettings(t *testing.T, api *fakeAPI) (string, string) {
	t.Helper()
	dir := t.TempDir()
	receipts := filepath.Join(dir, "receipts.yaml")
	settings := "api:\n" +
		"  base_url: " + api.URL + "/api\n" +
		"  attempt_timeout: 5s\n" +
		"receipts:\n" +
		"  path: " + receipts + "\n" +
		"log:\n" +
		"  level: error\n"
	return testutil.WriteTempFile(t, dir, "summitforms.yaml", settings), receipts
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteTempFile(t, t.TempDir(), name, content)
}
