// Package config loads Mökkiwahti's runtime configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. The YAML file passed to Load
//  3. MOKKIWAHTI_* environment variables, optionally seeded from a .env file
//
// Load validates the result and reports every problem at once.
package config
