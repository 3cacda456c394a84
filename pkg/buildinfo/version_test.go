package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version v9.9.9\n") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.Contains(got, "version: v9.9.9") {
		t.Errorf("String() = %q", got)
	}
	if got := UserAgent(); got != "lockgraph/v9.9.9" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestResolvedCommit(t *testing.T) {
	old := Commit
	Commit = "abc1234"
	defer func() { Commit = old }()
	if got := resolvedCommit(); got != "abc1234" {
		t.Errorf("resolvedCommit() = %q", got)
	}
}
