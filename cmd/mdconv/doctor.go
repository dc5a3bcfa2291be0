package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-mdconv/internal/fileutil"
	"github.com/alnah/go-mdconv/internal/hints"
	"github.com/alnah/go-mdconv/internal/locale"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	Locales  []string   `json:"locales"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	Container    bool   `json:"container"`
	CI           bool   `json:"ci"`
	TempWritable bool   `json:"temp_writable"`
}

// browserLookup finds Chrome when ROD_BROWSER_BIN is unset.
var browserLookup = launcher.LookPath

// runDoctorCmd executes the doctor command and returns an exit code.
// Warnings still exit 0.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor(env.Getenv)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(getenv func(string) string) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env:    envInfo{OS: runtime.GOOS, Arch: runtime.GOARCH},
	}

	checkChrome(result, getenv)
	checkEnvironment(result, getenv)
	for _, tag := range locale.Default().Languages() {
		result.Locales = append(result.Locales, tag.String())
	}

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkChrome locates the browser and asks it for its version.
func checkChrome(result *doctorResult, getenv func(string) string) {
	chromePath := getenv("ROD_BROWSER_BIN")
	if chromePath == "" {
		var found bool
		if chromePath, found = browserLookup(); !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if !fileutil.FileExists(chromePath) {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	result.Chrome.Sandbox = getenv("ROD_NO_SANDBOX") != "1"

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- browser path from env or rod lookup
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

// checkEnvironment detects containers, CI and a writable temp directory.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container = hints.IsInContainer() ||
		getenv("container") != "" ||
		getenv("KUBERNETES_SERVICE_HOST") != ""
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
	if (result.Env.Container || result.Env.CI) && getenv("ROD_NO_SANDBOX") != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}

	_, cleanup, err := fileutil.WriteTempFile("doctor", "txt")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	cleanup()
	result.Env.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdconv doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if r.Env.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintf(w, "  [OK] Locales: %s\n", strings.Join(r.Locales, ", "))
	fmt.Fprintln(w)

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  [WARN] %s\n", warn)
	}
	for _, err := range r.Errors {
		fmt.Fprintf(w, "  [ERROR] %s\n", err)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
