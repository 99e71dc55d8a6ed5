package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadIdentifiers reads compound identifiers, one per line. Blank lines and
// # comments are skipped; duplicates are dropped keeping first occurrence.
func ReadIdentifiers(r io.Reader) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan identifiers: %w", err)
	}
	return ids, nil
}

// ReadIdentifierFile reads identifiers from a file, or from stdin when the
// path is "-".
func ReadIdentifierFile(path string) ([]string, error) {
	if path == "-" {
		return ReadIdentifiers(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identifier file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadIdentifiers(f)
}
