package config

import (
	"path/filepath"
	"testing"
)

func TestReadConfig(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	var cfg Config

	cfg, err = ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.DB.Host == "" {
		t.Error("DB.Host should not be empty")
	}

	if cfg.Log.AppName == "" {
		t.Error("Log.AppName should not be empty")
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	if _, err := ReadConfig(t.TempDir() + string(filepath.Separator)); err == nil {
		t.Error("ReadConfig() should fail for a missing main.toml")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name: "valid",
			cfg: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			},
		},
		{
			name: "missing port",
			cfg: Config{
				Webserver: Webserver{URL: "http://localhost:8080"},
			},
			expectError: true,
		},
		{
			name: "missing url",
			cfg: Config{
				Webserver: Webserver{Port: 8080},
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(tc.cfg)

			if tc.expectError && err == nil {
				t.Error("validate() should have failed")
			}

			if !tc.expectError && err != nil {
				t.Errorf("validate() error = %v", err)
			}
		})
	}
}
