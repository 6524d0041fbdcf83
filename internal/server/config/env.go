package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv seeds the process environment from a dotenv file (-env-file, or
// ./.env when present) and then overlays every set variable onto config.
// Variables already present in the environment win over the dotenv file.
func parseEnv(config *Config) error {
	file := flagx.EnvFileFlags()
	explicit := file != ""
	if !explicit {
		file = defaultEnvFile
	}

	if err := godotenv.Load(file); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return env.Parse(config)
}
