package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Vault.Path != "" {
		t.Errorf("vault path = %q, want empty", cfg.Vault.Path)
	}
}

func TestVaultConfig_Exclude(t *testing.T) {
	cfg := VaultConfig{Exclude: []string{".trash/**", "**/*.draft.md"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid globs should pass: %v", err)
	}

	cfg.Exclude = append(cfg.Exclude, "[")
	if err := cfg.Validate(); err == nil {
		t.Fatal("malformed glob should fail validation")
	}
}

func TestSessionConfig_Required(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Session.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty session path should fail validation")
	}
}

func TestHTTPConfig_Address(t *testing.T) {
	tests := []struct {
		cfg  HTTPConfig
		want string
	}{
		{HTTPConfig{Host: "127.0.0.1", Port: 8080}, "127.0.0.1:8080"},
		{HTTPConfig{Port: 9000}, ":9000"},
		{HTTPConfig{Host: "::1", Port: 80}, "[::1]:80"},
	}
	for _, tt := range tests {
		if got := tt.cfg.Address(); got != tt.want {
			t.Errorf("Address() = %q, want %q", got, tt.want)
		}
	}
}

func TestHTTPConfig_InvalidHost(t *testing.T) {
	cfg := HTTPConfig{Host: "bad host", Port: 8080}
	if err := cfg.Validate(); err == nil {
		t.Fatal("host with a space should fail validation")
	}
}
