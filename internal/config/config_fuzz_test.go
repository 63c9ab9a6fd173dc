package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// FuzzLoadConfig tests configuration loading with various malformed inputs
func FuzzLoadConfig(f *testing.F) {
	f.Add(`widget:
  tablist: ul
  tabpanel: section
server:
  port: 8080
  host: localhost`)

	f.Add(`server:
  port: "invalid_port"
  host: localhost`)

	f.Add(`server:
  port: 65536`)

	f.Add(`widget:
  tablist: "ul["
  rtl: sideways`)

	f.Add(`malformed: yaml: content`)
	f.Add(``)

	f.Fuzz(func(t *testing.T, yamlContent string) {
		if len(yamlContent) > 50000 {
			t.Skip("Config content too large")
		}

		configFile := filepath.Join(t.TempDir(), ".a11ytabs.yml")
		if err := os.WriteFile(configFile, []byte(yamlContent), 0644); err != nil {
			t.Skip("Could not write config file")
		}

		v := viper.New()
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return
		}

		// Load must not panic; anything it accepts must be valid.
		config, err := LoadFrom(v)
		if err != nil || config == nil {
			return
		}

		if config.Server.Port < 0 || config.Server.Port > 65535 {
			t.Errorf("Invalid port range: %d", config.Server.Port)
		}
		if strings.ContainsAny(config.Server.Host, ";&|$`<>") {
			t.Errorf("Host contains dangerous characters: %q", config.Server.Host)
		}
		if config.Widget.Active < 0 {
			t.Errorf("Negative active index: %d", config.Widget.Active)
		}
		if result := ValidateConfigWithDetails(config); !result.Valid {
			t.Errorf("Loaded config fails validation:\n%s", result.String())
		}
	})
}
