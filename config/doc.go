// Package config loads YAML configuration for dobject tooling.
//
// Loading is split into three stages: Load (parse + ${VAR} env expansion),
// LoadWithDefaults (fill optional fields), and LoadAndValidate (reject
// malformed configs). Binaries should use LoadAndValidate.
package config
