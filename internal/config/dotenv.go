package config

import "github.com/joho/godotenv"

// LoadDotEnv reads .env files into the environment.
// Existing env vars take precedence. A missing file is reported to the
// caller, which usually ignores it.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}
