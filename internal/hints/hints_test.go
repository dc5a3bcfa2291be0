package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel(): they call t.Setenv and
//   swap the package-level IsInContainer

import (
	"strings"
	"testing"
)

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		inContainer bool
		env         map[string]string
		wantSandbox bool
		wantBin     bool
	}{
		{
			name:        "CI without settings",
			env:         map[string]string{"CI": "true", "ROD_NO_SANDBOX": "", "ROD_BROWSER_BIN": ""},
			wantSandbox: true,
			wantBin:     true,
		},
		{
			name:        "docker",
			inContainer: true,
			env:         map[string]string{"CI": "", "ROD_NO_SANDBOX": "", "ROD_BROWSER_BIN": "/usr/bin/chrome"},
			wantSandbox: true,
		},
		{
			name:        "sandbox already disabled",
			inContainer: true,
			env:         map[string]string{"CI": "", "ROD_NO_SANDBOX": "1", "ROD_BROWSER_BIN": ""},
			wantBin:     true,
		},
		{
			name: "local with browser bin",
			env:  map[string]string{"CI": "", "ROD_NO_SANDBOX": "", "ROD_BROWSER_BIN": "/usr/bin/chrome"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := IsInContainer
			defer func() { IsInContainer = orig }()
			IsInContainer = func() bool { return tt.inContainer }
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			// other CI markers would leak in from the runner
			t.Setenv("GITHUB_ACTIONS", "")
			t.Setenv("GITLAB_CI", "")
			t.Setenv("JENKINS_URL", "")

			hint := ForBrowserConnect()

			if got := strings.Contains(hint, "ROD_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("sandbox hint = %v, want %v (%q)", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("browser bin hint = %v, want %v (%q)", got, tt.wantBin, hint)
			}
			if !tt.wantSandbox && !tt.wantBin && hint != "" {
				t.Errorf("expected empty hint, got %q", hint)
			}
		})
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	hint := ForConfigNotFound([]string{"./mdconv.yaml", "/home/u/.config/go-mdconv/mdconv.yaml"})
	if !strings.Contains(hint, "--config") {
		t.Errorf("hint %q lacks --config", hint)
	}
	if !strings.Contains(hint, "go-mdconv/mdconv.yaml") {
		t.Errorf("hint %q lacks user config path", hint)
	}
}

func TestForFrontMatter(t *testing.T) {
	t.Parallel()

	if hint := ForFrontMatter(3, 7); !strings.Contains(hint, "line 3, column 7") {
		t.Errorf("ForFrontMatter(3, 7) = %q", hint)
	}
	if hint := ForFrontMatter(0, 0); !strings.Contains(hint, "---") {
		t.Errorf("ForFrontMatter(0, 0) = %q", hint)
	}
}

func TestForStyleNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		available []string
		want      string
	}{
		{"empty available", nil, ""},
		{"one style", []string{"default"}, "\n  hint: available: default"},
		{"several styles", []string{"default", "print"}, "\n  hint: available: default, print"},
	}
	for _, tt := range tests {
		if got := ForStyleNotFound(tt.available); got != tt.want {
			t.Errorf("%s: ForStyleNotFound() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()

	for _, h := range []string{
		ForTimeout(),
		ForOutputDirectory(),
		ForAssetNotFound(),
		ForFrontMatter(1, 1),
		ForConfigNotFound(nil),
		ForStyleNotFound([]string{"default"}),
	} {
		if !strings.HasPrefix(h, "\n  hint: ") {
			t.Errorf("hint format inconsistent: %q", h)
		}
	}
}
