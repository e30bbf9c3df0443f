//go:build mage

// Package main contains Mage build targets for agroscope developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/agroscope/internal/fallback"
)

// localDirs are the working directories the CLI reads and writes by default.
var localDirs = []string{
	".agroscope",
	".secrets",
	"bin",
}

// Init creates the local working directories.
func Init() error {
	for _, dir := range localDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Working directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "agroscope"
	cmdPkg  = "./cmd/agroscope"
)

// Build validates the fallback catalog and compiles the CLI binary into bin/.
// The version is taken from AGROSCOPE_VERSION, or "dev".
func Build() error {
	mg.Deps(Fallback)

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("AGROSCOPE_VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Fallback validates the embedded fallback catalog and, when FALLBACK_FILE is
// set, an override file against it.
func Fallback() error {
	embedded := fallback.Default()
	fmt.Printf("Embedded fallback catalog %s: %s\n", embedded.Version(), strings.Join(embedded.Keys(), ", "))

	path := os.Getenv("FALLBACK_FILE")
	if path == "" {
		return nil
	}
	c, err := fallback.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("Override %s %s: %s\n", path, c.Version(), strings.Join(c.Keys(), ", "))
	return nil
}

// Stats prints project metrics: Go production and test lines.
func Stats() error {
	var prod, test int
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || (d.Name() != "." && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", test)
	return nil
}

// countLines counts non-blank lines in path.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
