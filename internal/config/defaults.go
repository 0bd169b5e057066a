package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultDBPath      = "uniscrape.db"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultHeadless    = true
	DefaultParallel    = 1
	DefaultRenderWait  = 2 * time.Second
	MaxParallel        = 8
	EnvPrefix          = "UNISCRAPE_"
)
