package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultCredentialsFile is the dotenv file consulted before the process
// environment.
const DefaultCredentialsFile = "keys.env"

// ErrMissingCredentials is returned when DESP credentials are not set.
var ErrMissingCredentials = errors.New("DESP_USERNAME and DESP_PASSWORD must be set")

// Credentials hold the DESP account used for HDA access.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads DESP_USERNAME and DESP_PASSWORD, first loading the
// dotenv file when it exists. Values already present in the environment
// take precedence (godotenv does not overwrite).
func LoadCredentials(dotenvPath string) (Credentials, error) {
	if dotenvPath == "" {
		dotenvPath = DefaultCredentialsFile
	}

	if _, err := os.Stat(dotenvPath); err == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			return Credentials{}, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	creds := Credentials{
		Username: os.Getenv("DESP_USERNAME"),
		Password: os.Getenv("DESP_PASSWORD"),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return creds, nil
}
