package startup

import (
	"os"
	"path/filepath"
	"testing"

	"photovault/internal/mediatypes"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PHOTOVAULT_TEST_VAR", "custom")
	if got := getEnv("PHOTOVAULT_TEST_VAR", "default"); got != "custom" {
		t.Errorf("getEnv returned %q, want %q", got, "custom")
	}
	if got := getEnv("PHOTOVAULT_MISSING_VAR", "default"); got != "default" {
		t.Errorf("getEnv returned %q, want default", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		expected     bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"one", "1", false, true},
		{"zero", "0", true, false},
		{"empty uses default", "", true, true},
		{"invalid uses default", "banana", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				os.Unsetenv("PHOTOVAULT_TEST_BOOL")
			} else {
				t.Setenv("PHOTOVAULT_TEST_BOOL", tt.value)
			}
			if got := getEnvBool("PHOTOVAULT_TEST_BOOL", tt.defaultValue); got != tt.expected {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestEnsureDirectory(t *testing.T) {
	base := t.TempDir()

	// Creates missing directories
	target := filepath.Join(base, "new", "nested")
	if err := ensureDirectory(target, "test"); err != nil {
		t.Fatalf("ensureDirectory failed for missing dir: %v", err)
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		t.Fatal("directory was not created")
	}

	// Accepts existing directories
	if err := ensureDirectory(target, "test"); err != nil {
		t.Fatalf("ensureDirectory failed for existing dir: %v", err)
	}

	// Rejects files
	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := ensureDirectory(file, "test"); err == nil {
		t.Error("ensureDirectory accepted a regular file")
	}
}

func TestTestWriteAccess(t *testing.T) {
	dir := t.TempDir()
	if err := testWriteAccess(dir); err != nil {
		t.Errorf("testWriteAccess failed on writable dir: %v", err)
	}

	// Leftover test file must not remain.
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write test file left behind")
	}

	if err := testWriteAccess(filepath.Join(dir, "missing")); err == nil {
		t.Error("testWriteAccess succeeded on nonexistent dir")
	}
}

func TestSetupOptionalDir(t *testing.T) {
	base := t.TempDir()

	if !setupOptionalDir(filepath.Join(base, "staging"), "staging") {
		t.Error("setupOptionalDir failed on creatable dir")
	}

	// A path blocked by a regular file disables the feature.
	blocked := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if setupOptionalDir(filepath.Join(blocked, "sub"), "staging") {
		t.Error("setupOptionalDir succeeded under a regular file")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" {
		t.Error("Version is empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("OS/Arch not populated")
	}
}

func TestLoadConfig(t *testing.T) {
	base := t.TempDir()
	t.Setenv("VAULT_DIR", filepath.Join(base, "vault"))
	t.Setenv("IMPORT_DIR", filepath.Join(base, "import"))
	t.Setenv("STAGING_DIR", filepath.Join(base, "staging"))
	t.Setenv("PORT", "8181")
	t.Setenv("METRICS_PORT", "9191")
	t.Setenv("DEFAULT_PRESET", "high")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "8181" {
		t.Errorf("Port = %q, want 8181", config.Port)
	}
	if config.MetricsPort != "9191" {
		t.Errorf("MetricsPort = %q, want 9191", config.MetricsPort)
	}
	if config.DefaultPreset != mediatypes.PresetHigh {
		t.Errorf("DefaultPreset = %q, want high", config.DefaultPreset)
	}
	if !config.UploadsEnabled {
		t.Error("UploadsEnabled = false for a writable staging dir")
	}
	if _, err := os.Stat(config.VaultDir); err != nil {
		t.Errorf("vault dir not created: %v", err)
	}
}

func TestLoadConfigInvalidPresetFallsBack(t *testing.T) {
	base := t.TempDir()
	t.Setenv("VAULT_DIR", filepath.Join(base, "vault"))
	t.Setenv("IMPORT_DIR", filepath.Join(base, "import"))
	t.Setenv("STAGING_DIR", filepath.Join(base, "staging"))
	t.Setenv("DEFAULT_PRESET", "extreme")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.DefaultPreset != mediatypes.PresetStandard {
		t.Errorf("DefaultPreset = %q, want standard fallback", config.DefaultPreset)
	}
}
