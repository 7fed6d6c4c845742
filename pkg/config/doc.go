// Package config loads application configuration.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. built-in defaults
//  2. an optional YAML file pointed at by GLOWDESK_CONFIG_FILE
//  3. GLOWDESK_* environment variables
//
// The YAML file carries deploy-time settings checked into the environment
// repo; env vars carry per-instance overrides and secrets. LoadConfig
// validates the merged result before returning it.
package config
