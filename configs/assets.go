package configs

import (
	_ "embed"
)

// ConfigFile the default configuration, written out by --init and used if no config file exists
//
//go:embed config.yaml
var ConfigFile string
