// Package config provides the run configuration of hesdermutne: defaults,
// the optional YAML configuration file and validation.
package config
