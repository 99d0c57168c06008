// Package input reads candidate addresses and exclusion lists from files
// or standard input. Blank-line skipping and whitespace trimming happen
// here so downstream packages only ever see non-empty records.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadAddresses returns the candidate host:port lines from path.
// An empty path or "-" reads from stdin. Lines are trimmed; blank lines
// are skipped. Syntactic validation of each address is the filter's job.
func ReadAddresses(path string) ([]string, error) {
	if path == "" || path == "-" {
		return readLines(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open address list: %w", err)
	}
	defer file.Close()
	return readLines(file)
}

// ReadExclusions returns the exclusion-range lines from path. Lines
// starting with '#' are comments. Returns nil when path is empty (no
// exclusion list configured).
func ReadExclusions(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open exclusion list: %w", err)
	}
	defer file.Close()

	lines, err := readLines(file)
	if err != nil {
		return nil, err
	}
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return kept, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
