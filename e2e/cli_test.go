package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/realmledger/internal/api"
	"github.com/mcoot/realmledger/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "realmctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/realmctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithKey(key string, args ...string) (string, error) {
	return r.run(append([]string{"--key", key}, args...)...)
}

// cleanEnv drops REALMCTL_* variables from the caller's environment
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "REALMCTL_") {
			env = append(env, kv)
		}
	}
	return env
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create application
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		CredentialService: app.CredentialService,
		Guard:             app.Guard,
		ProfileService:    app.ProfileService,
		SettlementService: app.SettlementService,
		SessionController: app.SessionController,
		HubManager:        app.HubManager,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Signer struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Owner    string `json:"owner"`
	} `json:"signer"`
	SessionToken string `json:"session_token"`
}

type profileResponse struct {
	Owner             string `json:"owner"`
	TotalBlocksPlaced uint64 `json:"total_blocks_placed"`
	TotalAttacks      uint64 `json:"total_attacks"`
	TotalKills        uint64 `json:"total_kills"`
	TotalScore        uint64 `json:"total_score"`
	GamesPlayed       uint16 `json:"games_played"`
}

type sessionResponse struct {
	Owner   string `json:"owner"`
	Realm   string `json:"realm"`
	State   string `json:"state"`
	Score   uint64 `json:"score"`
	Epoch   uint64 `json:"epoch"`
	Custody string `json:"custody"`
}

type credentialResponse struct {
	Token      string `json:"token"`
	Credential struct {
		Owner  string `json:"owner"`
		Signer string `json:"signer"`
	} `json:"credential"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func decodeOutput[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decodeOutput[healthResponse](t, output)
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_SignerCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("signer", "register", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)
	registered := decodeOutput[authResponse](t, output)
	assert.Equal(t, "alice", registered.Signer.Username)
	assert.NotEmpty(t, registered.SessionToken)

	// Token should be saved in token file
	output, err = cli.run("signer", "me")
	require.NoError(t, err, "output: %s", output)
	me := decodeOutput[struct {
		Signer string `json:"signer"`
		Owner  string `json:"owner"`
	}](t, output)
	assert.Equal(t, registered.Signer.ID, me.Signer)
	assert.Equal(t, registered.Signer.Owner, me.Owner)

	output, err = cli.run("signer", "login", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)
	loggedIn := decodeOutput[authResponse](t, output)
	assert.Equal(t, registered.Signer.ID, loggedIn.Signer.ID)
}

func TestCLI_FullLifecycle(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("signer", "register", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)
	owner := decodeOutput[authResponse](t, output).Signer.Owner

	output, err = cli.run("profile", "create")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, owner, decodeOutput[profileResponse](t, output).Owner)

	output, err = cli.run("profile", "delegate")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "delegated", decodeOutput[sessionResponse](t, output).Custody)

	output, err = cli.run("profile", "credential")
	require.NoError(t, err, "output: %s", output)
	cred := decodeOutput[credentialResponse](t, output)
	assert.Equal(t, owner, cred.Credential.Owner)
	key := cred.Token

	// Play through the session key
	steps := [][]string{
		{"session", "enter", "Jungle"},
		{"session", "block", "stone"},
		{"session", "attack", "zombie", "10"},
		{"session", "kill", "dragon", "50"},
	}
	for _, step := range steps {
		output, err = cli.runWithKey(key, step...)
		require.NoError(t, err, "%v: %s", step, output)
	}

	output, err = cli.runWithKey(key, "profile", "checkpoint")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, uint64(56), decodeOutput[sessionResponse](t, output).Score)

	output, err = cli.runWithKey(key, "session", "end")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "ended", decodeOutput[sessionResponse](t, output).State)

	// The key cannot settle
	output, err = cli.runWithKey(key, "profile", "settle")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_AUTH")

	output, err = cli.run("profile", "settle")
	require.NoError(t, err, "output: %s", output)
	profile := decodeOutput[profileResponse](t, output)
	assert.Equal(t, uint64(1), profile.TotalBlocksPlaced)
	assert.Equal(t, uint64(1), profile.TotalAttacks)
	assert.Equal(t, uint64(1), profile.TotalKills)
	assert.Equal(t, uint64(56), profile.TotalScore)
	assert.Equal(t, uint16(1), profile.GamesPlayed)

	output, err = cli.run("session", "get")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "durable", decodeOutput[sessionResponse](t, output).Custody)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Get signer without auth
	output, err := cli.run("signer", "me")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")

	output, err = cli.run("signer", "register", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	// Get non-existent profile
	output, err = cli.run("profile", "get", "nobody")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	// Act before delegating
	output, err = cli.run("profile", "create")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("session", "enter", "Jungle")
	assert.Error(t, err)
	assert.Contains(t, output, "NOT_DELEGATED")

	// Damage out of range never reaches the server
	output, err = cli.run("session", "attack", "zombie", "256")
	assert.Error(t, err)
	assert.Contains(t, output, "invalid damage")
}
