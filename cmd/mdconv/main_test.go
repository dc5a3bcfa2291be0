package main

// Notes:
// - run() is exercised end to end with an injected Environment: no real
//   process environment, no Chrome. PDF output goes through stubRenderer.
// - Logging is set to "none" so stdout only carries command output.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-mdconv"
)

type stubRenderer struct {
	mu    sync.Mutex
	pdfs  int
	shots int
}

func (r *stubRenderer) PDF(_ context.Context, html string, _ mdconv.PrintOptions) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pdfs++
	return []byte("%PDF " + html), nil
}

func (r *stubRenderer) Screenshot(_ context.Context, _ string, opts mdconv.ImageOptions) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shots++
	return []byte(opts.Format), nil
}

func (r *stubRenderer) Close() error { return nil }

// testEnv returns an Environment with an empty process environment.
func testEnv(vars map[string]string, opts ...mdconv.Option) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			var out []string
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		ConverterOptions: opts,
	}
	return env, &stdout, &stderr
}

func writeMarkdown(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestRun_Commands - version, help and flag errors
// ---------------------------------------------------------------------------

func TestRun_Commands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"version command", []string{"version"}, ExitSuccess, "mdconv dev", ""},
		{"version flag", []string{"--version"}, ExitSuccess, "mdconv dev", ""},
		{"help command", []string{"help"}, ExitSuccess, "Usage:", ""},
		{"help flag", []string{"--help"}, ExitSuccess, "", "Usage:"},
		{"unknown flag", []string{"--bogus"}, ExitUsage, "", "unknown flag"},
		{"bad duration", []string{"--timeout", "soon", "a.md"}, ExitUsage, "", "error:"},
		{"no input", []string{"--log-level", "none"}, ExitIO, "", "no input"},
		{"too many workers", []string{"-w", "99", "a.md"}, ExitUsage, "", "invalid worker count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(nil)
			code := run(context.Background(), tt.args, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want to contain %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun_ConvertHTML - end-to-end conversion of a single file
// ---------------------------------------------------------------------------

func TestRun_ConvertHTML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeMarkdown(t, dir, "notes.md", "---\nTitle: Notes\nAuthor: Ada\n---\n# Results\n\nAll {{Author}}.\n")
	outDir := filepath.Join(dir, "out")

	env, _, stderr := testEnv(nil, mdconv.WithRenderer(&stubRenderer{}))
	code := run(context.Background(), []string{"--type", "html", "-o", outDir, "--log-level", "none", input}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "notes.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	html := string(data)
	for _, want := range []string{"<title>Notes</title>", `<h1 id="results">Results</h1>`, "All Ada."} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRun_ConvertDirectory - recursive batch with mirrored output layout
// ---------------------------------------------------------------------------

func TestRun_ConvertDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "docs")
	writeMarkdown(t, src, "a.md", "# A\n")
	writeMarkdown(t, src, "guide/b.markdown", "# B\n")
	writeMarkdown(t, src, "skip.txt", "not markdown")
	outDir := filepath.Join(dir, "out")

	renderer := &stubRenderer{}
	env, _, stderr := testEnv(nil, mdconv.WithRenderer(renderer))
	code := run(context.Background(), []string{"-t", "pdf,png", "-o", outDir, "-w", "2", "--log-level", "none", src}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	for _, want := range []string{"a.pdf", "a.png", "guide/b.pdf", "guide/b.png"} {
		if _, err := os.Stat(filepath.Join(outDir, want)); err != nil {
			t.Errorf("missing output %s: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "skip.pdf")); err == nil {
		t.Error("non-Markdown file should not be converted")
	}
	if renderer.pdfs != 2 || renderer.shots != 2 {
		t.Errorf("renderer calls = %d pdf, %d screenshots, want 2 and 2", renderer.pdfs, renderer.shots)
	}
}

// ---------------------------------------------------------------------------
// TestRun_EnvironmentOverrides - MDCONV_* values and CLI precedence
// ---------------------------------------------------------------------------

func TestRun_EnvironmentOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeMarkdown(t, dir, "env.md", "# Env\n")
	envOut := filepath.Join(dir, "env-out")
	flagOut := filepath.Join(dir, "flag-out")

	vars := map[string]string{
		"MDCONV_TYPES":      "html",
		"MDCONV_OUTPUT_DIR": envOut,
		"MDCONV_LOG_LEVEL":  "none",
	}

	t.Run("env applies", func(t *testing.T) {
		env, _, stderr := testEnv(vars, mdconv.WithRenderer(&stubRenderer{}))
		if code := run(context.Background(), []string{input}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		if _, err := os.Stat(filepath.Join(envOut, "env.html")); err != nil {
			t.Errorf("expected output in env dir: %v", err)
		}
	})

	t.Run("flag wins", func(t *testing.T) {
		env, _, stderr := testEnv(vars, mdconv.WithRenderer(&stubRenderer{}))
		if code := run(context.Background(), []string{"-o", flagOut, input}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		if _, err := os.Stat(filepath.Join(flagOut, "env.html")); err != nil {
			t.Errorf("expected output in flag dir: %v", err)
		}
	})

	t.Run("invalid workers", func(t *testing.T) {
		for _, workers := range []string{"500", "-1"} {
			env, _, stderr := testEnv(map[string]string{"MDCONV_WORKERS": workers, "MDCONV_LOG_LEVEL": "none"},
				mdconv.WithRenderer(&stubRenderer{}))
			code := run(context.Background(), []string{"-t", "html", input}, env)
			if code != ExitUsage {
				t.Errorf("MDCONV_WORKERS=%s: exit code = %d, want %d", workers, code, ExitUsage)
			}
			if !strings.Contains(stderr.String(), "MDCONV_WORKERS") {
				t.Errorf("MDCONV_WORKERS=%s: stderr = %q", workers, stderr)
			}
		}
	})

	t.Run("flag overrides invalid workers", func(t *testing.T) {
		env, _, stderr := testEnv(map[string]string{"MDCONV_WORKERS": "500", "MDCONV_LOG_LEVEL": "none"},
			mdconv.WithRenderer(&stubRenderer{}))
		code := run(context.Background(), []string{"-t", "html", "-w", "2", "-o", flagOut, input}, env)
		if code != ExitSuccess {
			t.Errorf("exit code = %d, stderr: %s", code, stderr)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRun_ConfigFile - YAML config drives settings
// ---------------------------------------------------------------------------

func TestRun_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeMarkdown(t, dir, "cfg.md", "# Config\n\n{{Company}}\n")
	cfgPath := writeMarkdown(t, dir, "conf/mdconv.yaml", strings.Join([]string{
		"output:",
		"  types: [html]",
		"logging:",
		"  level: none",
		"attributes:",
		"  Company: Initech",
		"",
	}, "\n"))

	env, _, stderr := testEnv(nil, mdconv.WithRenderer(&stubRenderer{}))
	if code := run(context.Background(), []string{"-c", cfgPath, input}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	data, err := os.ReadFile(filepath.Join(dir, "cfg.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "Initech") {
		t.Error("config attribute not substituted")
	}
}

// ---------------------------------------------------------------------------
// TestRun_Failures - exit codes and hints for failed conversions
// ---------------------------------------------------------------------------

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	badFM := writeMarkdown(t, dir, "bad.md", "---\ntags: [unclosed\n---\nbody\n")
	good := writeMarkdown(t, dir, "good.md", "# Good\n")
	wrongExt := writeMarkdown(t, dir, "notes.txt", "text")
	dupA := writeMarkdown(t, dir, "one/dup.md", "# 1\n")
	dupB := writeMarkdown(t, dir, "two/dup.md", "# 2\n")

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{"front matter", []string{"-t", "html", badFM}, ExitContent, "front matter"},
		{"missing file", []string{filepath.Join(dir, "missing.md")}, ExitIO, "error:"},
		{"wrong extension", []string{wrongExt}, ExitUsage, ".md or .markdown"},
		{"bad type", []string{"-t", "docx", good}, ExitUsage, "docx"},
		{"bad paper", []string{"-p", "B5", good}, ExitUsage, "B5"},
		{"output collision", []string{"-t", "html", "-o", filepath.Join(dir, "flat"), dupA, dupB}, ExitUsage, "same output"},
		{"unknown style", []string{"-t", "html", "--style", "nope", good}, ExitUsage, "available: default"},
		{"missing config", []string{"-c", "no-such-config-name", good}, ExitUsage, "config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, stderr := testEnv(nil, mdconv.WithRenderer(&stubRenderer{}))
			args := append([]string{"--log-level", "none"}, tt.args...)
			code := run(context.Background(), args, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun_CancelledContext - queued files are skipped
// ---------------------------------------------------------------------------

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeMarkdown(t, dir, "late.md", "# Late\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env, _, _ := testEnv(nil, mdconv.WithRenderer(&stubRenderer{}))
	code := run(ctx, []string{"-t", "html", "--log-level", "none", input}, env)
	if code == ExitSuccess {
		t.Error("cancelled run should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "late.html")); err == nil {
		t.Error("no output expected after cancellation")
	}
}
