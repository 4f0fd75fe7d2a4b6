// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

// Package platform resolves per-user directories for OpenPark using
// the XDG Base Directory layout.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "openpark"

// DirBase selects which directory tree a path is resolved under.
type DirBase uint8

// Directory bases.
const (
	BaseUser DirBase = iota // per-user data ($XDG_DATA_HOME)
	BaseConfig
)

// DirID identifies a well-known subdirectory.
type DirID uint8

// Directory identifiers.
const (
	DirPlugin DirID = iota
	DirSave
	DirScreenshot
)

func (d DirID) String() string {
	switch d {
	case DirPlugin:
		return "plugin"
	case DirSave:
		return "save"
	case DirScreenshot:
		return "screenshot"
	default:
		return "unknown"
	}
}

// Environment resolves OpenPark directories. The zero value resolves
// against the process environment; PluginDirOverride short-circuits
// plugin directory resolution (used by config and tests).
type Environment struct {
	PluginDirOverride string
}

// DirectoryPath returns the directory for the given base and id.
// The directory is not created and may not exist.
func (e *Environment) DirectoryPath(base DirBase, id DirID) string {
	if id == DirPlugin && e.PluginDirOverride != "" {
		return e.PluginDirOverride
	}
	switch base {
	case BaseConfig:
		return filepath.Join(ConfigDir(), id.String())
	default:
		return filepath.Join(DataDir(), id.String())
	}
}

// ConfigDir returns the XDG config directory for openpark.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DataDir returns the XDG data directory for openpark.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "share")
	}
	return filepath.Join(base, appName)
}

// EnsureDir creates a directory and all parent directories if they
// don't exist. Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
