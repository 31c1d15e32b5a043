package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/machin/internal/machin"
)

// DisplayResult writes the single result line "INTEGER[.FRACTION]".
func DisplayResult(out io.Writer, digits machin.Digits) error {
	_, err := fmt.Fprintln(out, digits.String())
	return err
}

// WriteResultToFile saves a result with a commented header. Missing parent
// directories are created.
//
// Parameters:
//   - path: The destination file.
//   - digits: The rendered result.
//   - p: The formula that produced it.
//   - algo: The display name of the calculator.
//   - duration: The calculation duration.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteResultToFile(path string, digits machin.Digits, p machin.Params, algo string, duration time.Duration) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	fmt.Fprintf(file, "# Machin Formula Result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Formula: %s\n", p)
	fmt.Fprintf(file, "# Precision: %d limbs\n", p.Precision)
	fmt.Fprintf(file, "# Algorithm: %s\n", algo)
	fmt.Fprintf(file, "# Duration: %s\n", duration)
	fmt.Fprintf(file, "# Digits: %d\n", digits.Len())
	fmt.Fprintf(file, "\n")
	if _, err := fmt.Fprintln(file, digits.String()); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
