package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
)

// envVarPattern matches a whole ${VAR_NAME} value
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// LoadEnvFiles loads .env and .env.local from the project root into the process environment.
// Variables already set win.
func LoadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// DetectEnvVar checks if a raw value is a simple ${VAR_NAME} reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// ExpandEnvRef resolves a ${VAR_NAME} value from the environment; other values pass through
func ExpandEnvRef(rawValue string) (string, error) {
	name, ok := DetectEnvVar(rawValue)
	if !ok {
		return rawValue, nil
	}
	value, set := os.LookupEnv(name)
	if !set || value == "" {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return value, nil
}
