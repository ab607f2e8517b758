// Package config loads the application configuration.
//
// Values are layered: Default() first, then an optional YAML file, then
// environment variables prefixed with ANS (for example
// ANS_PIPELINE_OUTPUT_DIR or ANS_DATABASE_DSN). Paths resolves the
// configured directories against a base directory and can create them.
package config
