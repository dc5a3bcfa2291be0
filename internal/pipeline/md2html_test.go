package pipeline

// Notes:
// - Highlighting output depends on chroma styles; we only check that a
//   highlighted block is produced, never the exact markup
// - Cancellation is tested with an already-cancelled context; a mid-render
//   cancel would need a slow goldmark extension and is not worth the setup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// TestMarkdownParser_Render
// ---------------------------------------------------------------------------

func TestMarkdownParser_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		opts         func(*ParserOptions)
		src          string
		env          RenderEnv
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "heading anchors",
			src:          "# Test\n\n# Test\n\n# Test\n",
			wantContains: []string{`id="test"`, `id="test1"`, `id="test2"`},
		},
		{
			name:         "explicit id reserved",
			src:          "# Test {#test}\n\n# Test\n",
			wantContains: []string{`id="test"`, `id="test1"`},
		},
		{
			name:         "anchors disabled",
			opts:         func(o *ParserOptions) { o.Anchors = false; o.TOC = nil },
			src:          "# Test\n",
			wantContains: []string{"<h1>Test</h1>"},
		},
		{
			name:         "marks",
			src:          "some ==highlighted== text",
			wantContains: []string{"<mark>highlighted</mark>"},
		},
		{
			name:         "marks disabled",
			opts:         func(o *ParserOptions) { o.Marks = false },
			src:          "some ==highlighted== text",
			wantContains: []string{"==highlighted=="},
		},
		{
			name:         "crlf normalized",
			src:          "# A\r\n\r\ntext\r\n",
			wantContains: []string{"<p>text</p>"},
			wantExcludes: []string{"\r"},
		},
		{
			name:         "raw html allowed by default",
			src:          "<div class=\"x\">hi</div>\n",
			wantContains: []string{`<div class="x">hi</div>`},
		},
		{
			name:         "raw html stripped when disabled",
			opts:         func(o *ParserOptions) { o.HTML = false },
			src:          "<div class=\"x\">hi</div>\n",
			wantExcludes: []string{`<div class="x">`},
		},
		{
			name:         "hard wraps",
			opts:         func(o *ParserOptions) { o.HardWraps = true; o.XHTML = false },
			src:          "a\nb",
			wantContains: []string{"a<br>\nb"},
		},
		{
			name:         "gfm table",
			src:          "| a | b |\n|---|---|\n| 1 | 2 |\n",
			wantContains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:         "footnote",
			src:          "text[^1]\n\n[^1]: note\n",
			wantContains: []string{"footnote"},
		},
		{
			name:         "highlighted code",
			src:          "```go\nfunc main() {}\n```\n",
			wantContains: []string{"<pre", "func"},
		},
		{
			name:         "relative image resolved",
			src:          "![logo](img/logo.png)",
			env:          RenderEnv{RootDir: testRoot()},
			wantContains: []string{`src="file://`},
		},
		{
			name:         "relative image kept without root",
			src:          "![logo](img/logo.png)",
			wantContains: []string{`src="img/logo.png"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultParserOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			got, err := NewMarkdownParser(opts).Render(context.Background(), tt.src, tt.env)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Render() = %q, want to contain %q", got, want)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("Render() = %q, should not contain %q", got, exclude)
				}
			}
		})
	}
}

func TestMarkdownParser_RenderCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMarkdownParser(DefaultParserOptions()).Render(ctx, "# A", RenderEnv{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestMarkdownParser_SlugScope - anchors never leak between renders
// ---------------------------------------------------------------------------

func TestMarkdownParser_SlugScope(t *testing.T) {
	t.Parallel()

	p := NewMarkdownParser(DefaultParserOptions())
	src := "# Test\n\n# Test\n"

	first, err := p.Render(context.Background(), src, RenderEnv{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, err := p.Render(context.Background(), src, RenderEnv{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if first != second {
		t.Errorf("consecutive renders differ:\n%s\n---\n%s", first, second)
	}
	if strings.Contains(second, `id="test2"`) {
		t.Errorf("second render continued numbering: %s", second)
	}
}

func TestMarkdownParser_ConcurrentRenders(t *testing.T) {
	t.Parallel()

	p := NewMarkdownParser(DefaultParserOptions())
	src := "[[toc]]\n\n# Test\n\n# Test\n\n# Test\n"

	want, err := p.Render(context.Background(), src, RenderEnv{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	outs := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := p.Render(context.Background(), src, RenderEnv{})
			if err != nil {
				errs <- err
				return
			}
			outs <- out
		}()
	}
	wg.Wait()
	close(errs)
	close(outs)

	for err := range errs {
		t.Errorf("Render() error = %v", err)
	}
	for got := range outs {
		if got != want {
			t.Errorf("concurrent render differs:\n%s\n---\n%s", got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestMarkdownParser_SetOptions
// ---------------------------------------------------------------------------

func TestMarkdownParser_SetOptions(t *testing.T) {
	t.Parallel()

	p := NewMarkdownParser(DefaultParserOptions())
	ctx := context.Background()

	before, err := p.Render(ctx, "==x==", RenderEnv{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(before, "<mark>x</mark>") {
		t.Fatalf("Render() = %q, want mark", before)
	}

	opts := p.Options()
	opts.Marks = false
	p.SetOptions(opts)

	after, err := p.Render(ctx, "==x==", RenderEnv{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(after, "<mark>") {
		t.Errorf("Render() after SetOptions = %q, want no mark", after)
	}
	if p.Options().Marks {
		t.Error("Options().Marks = true after SetOptions(false)")
	}
}
