package main

import (
	"fmt"
	"os"
	"time"
)

// config is the configuration for the dbmigrate command.
type config struct {
	dbFile  string
	timeout time.Duration
}

// defaultConfig returns a config with sane default values.
func defaultConfig() config {
	return config{
		dbFile:  "homebid.db",
		timeout: time.Second * 60,
	}
}

// envMap maps environment variable names to fields in the config struct.
var envMap = map[string]func(v string, c *config) error{
	"DB_FILE": func(v string, c *config) error {
		if v == "" {
			return fmt.Errorf("db file may not be empty")
		}
		c.dbFile = v
		return nil
	},
	"MIGRATE_TIMEOUT": func(v string, c *config) error {
		dur, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		if dur <= 0 {
			return fmt.Errorf("timeout %s must be positive", dur)
		}
		c.timeout = dur
		return nil
	},
}

// configFromEnv returns a config with values from the environment. It falls
// back to default values for any missing environment variables.
//
// It does a best effort to validate provided values, so that mistakes are
// caught ASAP. However, there is no guarantee that the returned config
// is valid and will work.
func configFromEnv() (config, error) {
	c := defaultConfig()

	for key, mf := range envMap {
		if val, ok := os.LookupEnv(key); ok {
			if err := mf(val, &c); err != nil {
				return c, fmt.Errorf("invalid env variable %s: %w", key, err)
			}
		}
	}

	return c, nil
}
