package testkit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/shoplight/prodsearch/internal/app"
)

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnv manages the lifecycle of test services
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
}

type testEnvImpl struct {
	services   []Service
	properties map[string]any
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) TestEnv {
	return &testEnvImpl{
		services:   services,
		properties: make(map[string]any),
	}
}

func (e *testEnvImpl) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			return nil, err
		}
		for k, v := range props {
			e.properties[k] = v
		}
	}
	return e.properties, nil
}

func (e *testEnvImpl) Stop() error {
	var lastErr error
	// Stop in reverse order
	for i := len(e.services) - 1; i >= 0; i-- {
		if err := e.services[i].Stop(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

// FlagOptions configures NewServeFlags
type FlagOptions struct {
	Port      int    // Uses free port if 0
	Host      string // Defaults to "localhost"
	IndexPath string // Required, path to a built index
	AuthType  string // Defaults to "none"
	APIKeys   string // Comma-separated, only for AuthType "apikey"
}

// NewServeFlags creates a configured pflag.FlagSet for serve tests
func NewServeFlags(t testing.TB, opts FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterServeFlags(flags)

	port := opts.Port
	if port == 0 {
		port = MustGetFreePort(t)
	}
	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	authType := opts.AuthType
	if authType == "" {
		authType = "none"
	}

	_ = flags.Set("host", host)
	_ = flags.Set("port", fmt.Sprintf("%d", port))
	_ = flags.Set("index", opts.IndexPath)
	_ = flags.Set("auth-type", authType)
	if opts.APIKeys != "" {
		_ = flags.Set("auth-api-keys", opts.APIKeys)
	}
	// Keep test logs quiet unless something fails
	_ = flags.Set("log-level", "error")

	return flags
}

// SearchServerService runs the HTTP search server as a test service
type SearchServerService struct {
	Flags *pflag.FlagSet

	cancel context.CancelFunc
	done   chan error
}

func (s *SearchServerService) GetName() string {
	return "search-server"
}

// Start launches the server and blocks until /health responds or a timeout.
func (s *SearchServerService) Start() (map[string]any, error) {
	host, _ := s.Flags.GetString("host")
	port, _ := s.Flags.GetInt("port")
	baseURL := fmt.Sprintf("http://%s:%d", host, port)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- app.RunServe(ctx, app.DefaultRunParams(), s.Flags, "test")
	}()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-s.done:
			return nil, fmt.Errorf("server exited during startup: %w", err)
		default:
		}

		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return map[string]any{"base_url": baseURL}, nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	return nil, fmt.Errorf("server did not become healthy at %s", baseURL)
}

// Stop shuts the server down and returns its exit error, if any.
func (s *SearchServerService) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-time.After(15 * time.Second):
		return fmt.Errorf("server did not shut down in time")
	}
}
