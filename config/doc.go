// Package config provides configuration loading and validation for the
// scribe service.
//
// It uses Viper to load configuration from a config.yml file and environment
// variables, with .env file support via godotenv. Environment variables
// override file values using underscore-separated paths (e.g. SERVER_PORT,
// ENGINE_BASE_URL).
package config
