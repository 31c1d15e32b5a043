package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/machin/internal/machin"
)

func TestDisplayResult(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	if err := DisplayResult(&out, machin.Digits{Integer: "3", Fraction: "14"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3.14\n" {
		t.Errorf("DisplayResult wrote %q", out.String())
	}

	out.Reset()
	_ = DisplayResult(&out, machin.Digits{Integer: "0"})
	if out.String() != "0\n" {
		t.Errorf("integer-only result = %q", out.String())
	}
}

func TestWriteResultToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "pi.txt")
	digits := machin.Digits{Integer: "3", Fraction: "1415926535"}

	if err := WriteResultToFile(path, digits, machin.DefaultParams(), "Block-wise Long Division", time.Second); err != nil {
		t.Fatalf("WriteResultToFile() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(content)
	for _, want := range []string{
		"# Formula: 4 * (5*arccot(7) + 4*arccot(68) + 2*arccot(117))",
		"# Precision: 17 limbs",
		"# Algorithm: Block-wise Long Division",
		"# Digits: 11",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("header missing %q", want)
		}
	}
	if !strings.HasSuffix(text, "\n3.1415926535\n") {
		t.Errorf("file should end with the result line, got %q", text)
	}
}

func TestWriteResultToFileError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// A directory cannot be created where a regular file already exists.
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	err := WriteResultToFile(filepath.Join(blocker, "pi.txt"), machin.Digits{Integer: "3"}, machin.DefaultParams(), "x", 0)
	if err == nil {
		t.Error("expected an error when the parent is a file")
	}
}
