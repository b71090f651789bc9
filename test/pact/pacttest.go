//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "payment-gateway"
	ConsumerName = "commerce-api"

	StateGatewayHealthy = "gateway captures charges"
	StateCardDeclined   = "card on file is declined"
)

const (
	CaptureOrderID int64 = 301
	DeclineOrderID int64 = 302

	CaptureToken = "tok-pact-capture"
	DeclineToken = "tok-pact-decline"

	CaptureIdemKey = "pact-idem-capture-001"
	DeclineIdemKey = "pact-idem-decline-001"

	ExampleReference     = "ch_9f8e7d6c"
	ExampleDeclineReason = "insufficient funds"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
