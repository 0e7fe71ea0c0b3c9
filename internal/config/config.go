// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// Type is the loaded configuration. Source is the absolute path of the YAML
// file, Namespace an optional keyspace that lets a command prefer its own
// settings ("run.region" before "region"), and Data the raw tree as
// unmarshaled. Callers go through the typed getters.
type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

// Config is the global, lazily-loaded instance.
var Config Type

// init loads at process start. A missing file is fine; the getters reload
// lazily and fall back to their defaults.
func init() {
	_, _ = Load()
}

// Load reads the YAML config file and replaces the global Config.
func Load(cfgFilePath ...string) (Type, error) {
	path, err := getConfigFile()
	if err != nil {
		return Type{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Type{}, err
	}

	Config = Type{Source: path, Data: data}
	return Config, nil
}

// lookup resolves key against the tree, reloading first when the process
// started without a config file.
func lookup(key string) (any, error) {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}
	return Config.get(key)
}

// GetString returns the string at the dotted key path. A single default is
// returned when the key is missing.
func GetString(key string, defaultValue ...string) (string, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}
	return s, nil
}

// GetInt returns the int at the dotted key path. YAML numbers decode as
// int, int64, or float64 depending on content; all three convert.
func GetInt(key string, defaultValue ...int) (int, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

// GetStringSlice returns the string slice at the dotted key path. YAML
// lists decode as []interface{}, so elements are asserted one at a time.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return nil, err
	}

	switch v := val.(type) {
	case []string:
		return v, nil
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("slice element is not a string")
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, errors.New("value is not a slice")
	}
}

// get walks the tree by dotted key path, trying the namespaced candidate
// first when Namespace is set.
func (cfg *Type) get(kspec string) (any, error) {
	if len(cfg.Data) == 0 {
		_, _ = Load(cfg.Source)
	}

	candidates := []string{kspec}
	if cfg.Namespace != "" {
		candidates = append([]string{cfg.Namespace + "." + kspec}, candidates...)
	}

	for _, key := range candidates {
		if val, ok := walk(cfg.Data, key); ok {
			return val, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidates)
}

// walk descends the tree one dotted segment at a time.
func walk(data map[string]interface{}, key string) (any, bool) {
	var current interface{} = data
	for _, segment := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if current, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

// getConfigFile resolves the config file path. FLEETCTL_CFG_FILE wins when
// set and must name an existing file; otherwise the user config directory
// is probed for fleetctl.yaml.
func getConfigFile() (string, error) {
	if cfgPath := os.Getenv("FLEETCTL_CFG_FILE"); cfgPath != "" {
		fileInfo, err := os.Stat(cfgPath)
		if err != nil {
			return "", fmt.Errorf("config file not found at FLEETCTL_CFG_FILE path: %s", cfgPath)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("FLEETCTL_CFG_FILE points to a directory: %s", cfgPath)
		}
		log.Debugf("using config file from FLEETCTL_CFG_FILE: %s", cfgPath)
		return cfgPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	file := filepath.Join(dir, "fleetctl.yaml")
	if fileInfo, err := os.Stat(file); err == nil && !fileInfo.IsDir() {
		log.Debugf("using config file: %s", file)
		return file, nil
	}

	return "", errors.New("no config file found in standard locations")
}
