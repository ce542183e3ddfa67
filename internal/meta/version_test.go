package meta_test

import (
	"strings"
	"testing"

	"github.com/uptrack/uptrack/internal/meta"
)

func TestUserAgent(t *testing.T) {
	if ua := meta.UserAgent(); !strings.HasPrefix(ua, "uptrack/"+meta.Version+" ") {
		t.Errorf("unexpected user agent: %s", ua)
	}
}

func TestString(t *testing.T) {
	if s := meta.String(); s != meta.Version+" ("+meta.Commit+")" {
		t.Errorf("unexpected version string: %s", s)
	}
}
