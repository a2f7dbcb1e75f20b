// Package env locates the xvcpkg home directory and the directories
// beneath it.
package env

import (
	"os"
	"path/filepath"
)

// HomeEnv names the variable overriding the home directory.
const HomeEnv = "XVCPKG_HOME"

// WorkDir returns the xvcpkg home, $XVCPKG_HOME or <UserCacheDir>/.xvcpkg.
func WorkDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".xvcpkg"), nil
}

// PackagesDir returns the workspace holding installed packages and their
// published infos, creating it if needed.
func PackagesDir() (string, error) {
	return subdir("packages")
}

// ProfilesDir returns the directory searched for named profiles, creating
// it if needed.
func ProfilesDir() (string, error) {
	return subdir("profiles")
}

func subdir(name string) (string, error) {
	work, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(work, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
