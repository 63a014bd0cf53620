package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteVersion(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()
	Version = "v1.2.3"

	var buf bytes.Buffer
	writeVersion(&buf)

	out := buf.String()
	if !strings.HasPrefix(out, "gh-release-milestones version v1.2.3\n") {
		t.Errorf("unexpected version line: %q", out)
	}
	for _, want := range []string{"  commit: ", "  built: ", "  go: "} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}
