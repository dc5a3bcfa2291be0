package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdconv"
	"github.com/alnah/go-mdconv/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrOutputCollision    = errors.New("inputs would write the same output")
)

// FileToConvert is one discovered source and the directory its outputs go to.
type FileToConvert struct {
	InputPath string
	OutputDir string // empty = next to the input
}

// discoverFiles expands the inputs into Markdown files. Directories are
// walked recursively; their subdirectory layout is kept under outputDir.
// Two inputs whose outputs would land on the same path are an error.
func discoverFiles(inputs []string, outputDir string) ([]FileToConvert, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	var files []FileToConvert
	seen := map[string]bool{}
	add := func(path, out string) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, FileToConvert{InputPath: path, OutputDir: out})
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if err := validateMarkdownExtension(input); err != nil {
				return nil, err
			}
			add(input, outputDir)
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() || !isMarkdown(path) {
				return nil
			}
			add(path, resolveOutputDir(path, input, outputDir))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if err := checkOutputCollisions(files); err != nil {
		return nil, err
	}
	return files, nil
}

// checkOutputCollisions rejects inputs sharing an output directory and
// file stem, e.g. a/x.md and b/x.md with a flat --output-dir.
func checkOutputCollisions(files []FileToConvert) error {
	owners := make(map[string]string, len(files))
	for _, f := range files {
		dir := f.OutputDir
		if dir == "" {
			dir = filepath.Dir(f.InputPath)
		}
		key := filepath.Join(dir, fileutil.Stem(f.InputPath))
		if first, ok := owners[key]; ok {
			return fmt.Errorf("%w: %s and %s both produce %s.*", ErrOutputCollision, first, f.InputPath, key)
		}
		owners[key] = f.InputPath
	}
	return nil
}

// resolveOutputDir mirrors the file's directory below baseInputDir into
// outputDir.
func resolveOutputDir(path, baseInputDir, outputDir string) string {
	if outputDir == "" {
		return ""
	}
	rel, err := filepath.Rel(baseInputDir, filepath.Dir(path))
	if err != nil || rel == "." {
		return outputDir
	}
	return filepath.Join(outputDir, rel)
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	if !isMarkdown(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mdconv.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mdconv.MaxPoolSize)
	}
	return nil
}
