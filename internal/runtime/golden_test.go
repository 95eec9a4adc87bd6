package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// goldenTest runs a .moba file and compares its output to a .expected file.
func goldenTest(t *testing.T, name string) {
	t.Helper()

	srcPath := filepath.Join("..", "..", "testdata", name+".moba")
	expectedPath := filepath.Join("..", "..", "testdata", name+".expected")

	source, err := os.ReadFile(srcPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", srcPath, err)
	}

	expected, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", expectedPath, err)
	}

	got, err := runSource(t, string(source))
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}

	expectedLines := strings.Split(strings.TrimRight(string(expected), "\n"), "\n")
	gotLines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if diff := cmp.Diff(expectedLines, gotLines); diff != "" {
		t.Errorf("output mismatch for %s (-expected +got):\n%s", name, diff)
	}
}

func TestGoldenSkirmish(t *testing.T) {
	goldenTest(t, "skirmish")
}

func TestGoldenSequences(t *testing.T) {
	goldenTest(t, "sequences")
}
