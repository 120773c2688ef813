/**
 * Filename: config.go
 * Path: micos
 * Created Date: Friday, March 8th 2024, 10:05:44 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory
const DefaultConfigFile = "config.yaml"

// Settings are flag defaults read from the config file, keyed by normalized
// flag name
type Settings map[string]string

// normalizeKey maps `KRAKEN2_DB`, `kraken2-db` and `kraken2_db` to one key
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

// LoadSettings reads a flat YAML mapping. A missing file gives empty settings
// and no error. A file that cannot be read or parsed also gives empty
// settings, together with the error so the caller can warn about it.
func LoadSettings(filename string) (Settings, error) {
	settings := Settings{}
	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, errors.Wrapf(err, "cannot read `%s`", filename)
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return settings, errors.Wrapf(err, "cannot parse `%s`", filename)
	}
	for key, value := range raw {
		switch value.(type) {
		case nil, map[string]interface{}, []interface{}:
			continue
		}
		settings[normalizeKey(key)] = fmt.Sprint(value)
	}
	return settings, nil
}

// Lookup returns the value configured for a flag name
func (s Settings) Lookup(flagName string) (string, bool) {
	v, ok := s[normalizeKey(flagName)]
	return v, ok
}

// ApplyTo fills every flag that was not given on the command line. Flags set
// this way count as given, so required flags can come from the file.
func (s Settings) ApplyTo(flags *pflag.FlagSet) error {
	var firstErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		value, ok := s.Lookup(f.Name)
		if !ok {
			return
		}
		if err := flags.Set(f.Name, value); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "invalid value for --%s in config", f.Name)
		}
	})
	return firstErr
}
