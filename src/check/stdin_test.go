package check

import (
	"strings"
	"testing"
)

func TestReadPaths(t *testing.T) {
	in := strings.NewReader("src/a.go\n\n  src/b.go  \n\nsrc/c.go")
	paths, err := ReadPaths(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := []string{"src/a.go", "src/b.go", "src/c.go"}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestReadPathsEmpty(t *testing.T) {
	paths, err := ReadPaths(strings.NewReader(""))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("got %v, want none", paths)
	}
}
