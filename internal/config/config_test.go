package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "DATABASE_URL", "EVENT_STORE", "ENTITY_RESOLVER", "TESSELLATION_INTERVAL", "RATE_LIMIT_RPS"} {
		t.Setenv(k, "")
	}

	if ServerAddr() != ":8080" {
		t.Errorf("ServerAddr = %s", ServerAddr())
	}
	if EventStore() != EventStoreMemory {
		t.Errorf("EventStore = %s", EventStore())
	}
	if EntityResolver() != "none" {
		t.Errorf("EntityResolver = %s", EntityResolver())
	}
	if TessellationInterval() != time.Minute {
		t.Errorf("TessellationInterval = %v", TessellationInterval())
	}
	if RateLimitRPS() != 100 {
		t.Errorf("RateLimitRPS = %v", RateLimitRPS())
	}
}

func TestEventStore_InfersPostgres(t *testing.T) {
	t.Setenv("EVENT_STORE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/relspace")
	if EventStore() != EventStorePostgres {
		t.Errorf("EventStore = %s", EventStore())
	}

	t.Setenv("EVENT_STORE", EventStoreSQLite)
	if EventStore() != EventStoreSQLite {
		t.Errorf("explicit backend should win, got %s", EventStore())
	}
}

func TestTessellationInterval(t *testing.T) {
	tests := []struct {
		raw      string
		expected time.Duration
	}{
		{"30s", 30 * time.Second},
		{"90", 90 * time.Second},
		{"-5s", time.Minute},
		{"soon", time.Minute},
	}

	for _, tt := range tests {
		t.Setenv("TESSELLATION_INTERVAL", tt.raw)
		if got := TessellationInterval(); got != tt.expected {
			t.Errorf("TessellationInterval(%q) = %v, expected %v", tt.raw, got, tt.expected)
		}
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("SPACE_NAME=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RELSPACE_ENV", envFile)
	t.Setenv("SPACE_NAME", "")
	os.Unsetenv("SPACE_NAME")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if SpaceName() != "from-file" {
		t.Errorf("SpaceName = %s", SpaceName())
	}
}

func TestParseQualityProfiles(t *testing.T) {
	data := []byte(`
profiles:
  employment:
    strength: 0.8
    trust: 0.7
    formality: legal
    reciprocity: 0.4
  "custom:sponsorship":
    strength: 0.3
    trust: 0.9
    formality: informal
    reciprocity: 0.2
`)

	set, err := ParseQualityProfiles(data)
	if err != nil {
		t.Fatalf("ParseQualityProfiles: %v", err)
	}
	emp := set.For(domain.CategoryEmployment)
	if emp.Strength != 0.8 || emp.Formality != domain.FormalityLegal {
		t.Errorf("employment = %+v", emp)
	}
	if sp := set.For(domain.CustomCategory("sponsorship")); sp.Trust != 0.9 {
		t.Errorf("sponsorship = %+v", sp)
	}
	if fr := set.For(domain.CategoryFriendship); fr.Trust != 0.8 {
		t.Errorf("friendship should keep its built-in profile, got %+v", fr)
	}
}

func TestParseQualityProfiles_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown category", "profiles:\n  rivalry:\n    formality: formal\n"},
		{"unknown formality", "profiles:\n  employment:\n    formality: casual\n"},
		{"not yaml", "profiles: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQualityProfiles([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	_, err := ParseQualityProfiles([]byte("profiles:\n  employment:\n    strength: 1.5\n    formality: formal\n"))
	if !errors.Is(err, domain.ErrQualityOutOfRange) {
		t.Errorf("expected quality out of range, got %v", err)
	}
}

func TestLoadQualityProfiles_EmptyPath(t *testing.T) {
	set, err := LoadQualityProfiles("")
	if err != nil || set != nil {
		t.Errorf("empty path: %v %v", set, err)
	}
	if _, err := LoadQualityProfiles(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
