// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fsutil resolves the file paths given in the command line.
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileExists returns whether the file or directory exists, or an error if the file system fails.
func FileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat %q", filePath)
}

// ExpandPath expands environment variables ($VAR or ${VAR}) and a leading "~" or "~user" in filePath.
// Empty paths are returned unchanged.
func ExpandPath(filePath string) (string, error) {
	if filePath == "" {
		return filePath, nil
	}
	filePath = os.ExpandEnv(filePath)
	if filePath[0] != '~' {
		return filePath, nil
	}
	userName, rest, _ := strings.Cut(filePath[1:], "/")
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory in path %q", filePath)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}

// CheckOutput expands outputPath and makes sure it won't silently overwrite an existing file, unless
// overwrite is set.
func CheckOutput(outputPath string, overwrite bool) (string, error) {
	outputPath, err := ExpandPath(outputPath)
	if err != nil || outputPath == "" || overwrite {
		return outputPath, err
	}
	exists, err := FileExists(outputPath)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.Errorf("output file %q already exists", outputPath)
	}
	return outputPath, nil
}
