package version

import (
	"strings"
	"testing"
)

func TestFullIncludesCommit(t *testing.T) {
	if got := Full(); !strings.Contains(got, Version) || !strings.Contains(got, Commit) {
		t.Fatalf("unexpected version string: %s", got)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "aircache/"+Version {
		t.Fatalf("unexpected user agent: %s", got)
	}
}
