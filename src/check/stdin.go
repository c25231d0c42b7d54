package check

import (
	"bufio"
	"io"
	"strings"
)

// ReadPaths reads newline-delimited paths, one per line, skipping blanks.
// Used when "-" is passed on the command line.
func ReadPaths(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}
