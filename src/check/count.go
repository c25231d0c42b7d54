package check

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
)

// ErrMissing reports that the file to count does not exist.
var ErrMissing = errors.New("file does not exist")

// Inspection is the result of counting a file.
type Inspection struct {
	// Binary is true when the file contains NUL bytes in its first chunk;
	// binary files are skipped with a warning, never counted.
	Binary bool
	Lines  int
}

const countChunkSize = 8192

// InspectFile counts lines with wc -l semantics: newline-delimited records,
// a trailing unterminated line still counts, an empty file counts zero.
// Reads in fixed-size chunks so large files are never held in memory whole.
func InspectFile(path string) (Inspection, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Inspection{}, ErrMissing
		}
		return Inspection{}, err
	}
	defer f.Close()

	buf := make([]byte, countChunkSize)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return Inspection{}, err
	}
	if n == 0 {
		return Inspection{Lines: 0}, nil
	}

	if bytes.IndexByte(buf[:n], 0) >= 0 {
		return Inspection{Binary: true}, nil
	}

	newlines := bytes.Count(buf[:n], []byte{'\n'})
	lastByte := buf[n-1]

	for {
		n, err = f.Read(buf)
		if n > 0 {
			newlines += bytes.Count(buf[:n], []byte{'\n'})
			lastByte = buf[n-1]
		}
		if errors.Is(err, io.EOF) || n == 0 && err == nil {
			break
		}
		if err != nil {
			return Inspection{}, err
		}
	}

	lines := newlines
	if lastByte != '\n' {
		lines++
	}
	return Inspection{Lines: lines}, nil
}
