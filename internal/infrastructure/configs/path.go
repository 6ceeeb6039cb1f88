package configs

import (
	"flag"
	"os"

	"github.com/inkroom/inkroom/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from --config, the
// INKROOM_CONFIG env var, then a set of conventional locations. An empty
// result means run on defaults.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("INKROOM_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"../../config.yaml", // keep for local dev
			"/etc/inkroom/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
