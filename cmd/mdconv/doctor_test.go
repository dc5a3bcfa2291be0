package main

// Notes:
// - Browser lookup is pinned through ROD_BROWSER_BIN, pointing at a file
//   that exists but cannot report a version, so results do not depend on
//   the installed Chrome.
// - hints.IsInContainer reads the real filesystem; container assertions
//   only use the environment-based signals.

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func fakeBrowser(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(path, []byte("not a binary"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_JSONOutput - JSON output format and structure
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	browser := fakeBrowser(t)
	env, stdout, _ := testEnv(map[string]string{"ROD_BROWSER_BIN": browser, "ROD_NO_SANDBOX": "1"})

	code := runDoctorCmd([]string{"--json"}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	if code != ExitSuccess {
		t.Errorf("exit code = %d, want %d (errors: %v)", code, ExitSuccess, result.Errors)
	}
	if result.Env.OS != runtime.GOOS || result.Env.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s", result.Env.OS, result.Env.Arch)
	}
	if !result.Chrome.Found || result.Chrome.Path != browser {
		t.Errorf("chrome = %+v, want found at %s", result.Chrome, browser)
	}
	if result.Chrome.Sandbox {
		t.Error("sandbox should be reported disabled")
	}
	// The fake binary cannot run, so the version check only warns.
	if result.Status != statusWarnings {
		t.Errorf("status = %q, want %q", result.Status, statusWarnings)
	}
	if !result.Env.TempWritable {
		t.Error("temp directory should be writable")
	}
	if len(result.Locales) == 0 || result.Locales[0] != "en" {
		t.Errorf("locales = %v, want en first", result.Locales)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_HumanOutput - human-readable output format
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_HumanOutput(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(map[string]string{"ROD_BROWSER_BIN": fakeBrowser(t)})
	runDoctorCmd(nil, env)

	out := stdout.String()
	for _, want := range []string{"mdconv doctor", "Chrome/Chromium", "[OK] Found at", "Environment", "Status:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_MissingBrowser - configured path does not exist
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_MissingBrowser(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "no-chrome")
	env, stdout, _ := testEnv(map[string]string{"ROD_BROWSER_BIN": missing})

	if code := runDoctorCmd(nil, env); code != ExitGeneral {
		t.Errorf("exit code = %d, want %d", code, ExitGeneral)
	}
	out := stdout.String()
	if !strings.Contains(out, "Chrome not found at "+missing) {
		t.Errorf("output missing browser error:\n%s", out)
	}
	if !strings.Contains(out, "Not ready") {
		t.Errorf("output missing status:\n%s", out)
	}
}

// ---------------------------------------------------------------------------
// TestCheckEnvironment - CI and container detection
// ---------------------------------------------------------------------------

func TestCheckEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		vars          map[string]string
		wantCI        bool
		wantContainer bool
		wantWarning   bool
	}{
		{"ci without no-sandbox", map[string]string{"GITHUB_ACTIONS": "true"}, true, false, true},
		{"ci with no-sandbox", map[string]string{"CI": "1", "ROD_NO_SANDBOX": "1"}, true, false, false},
		{"kubernetes", map[string]string{"KUBERNETES_SERVICE_HOST": "10.0.0.1"}, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := &doctorResult{}
			checkEnvironment(result, mapGetenv(tt.vars))

			if result.Env.CI != tt.wantCI {
				t.Errorf("CI = %v, want %v", result.Env.CI, tt.wantCI)
			}
			if tt.wantContainer && !result.Env.Container {
				t.Error("container not detected")
			}
			hasWarning := len(result.Warnings) > 0
			if hasWarning != tt.wantWarning {
				t.Errorf("warnings = %v, want warning %v", result.Warnings, tt.wantWarning)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult - status lines
// ---------------------------------------------------------------------------

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   string
	}{
		{statusReady, "Ready to convert"},
		{statusWarnings, "Ready with warnings"},
		{statusErrors, "Not ready"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		printDoctorResult(&buf, &doctorResult{Status: tt.status})
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("status %s: output missing %q", tt.status, tt.want)
		}
	}
}
