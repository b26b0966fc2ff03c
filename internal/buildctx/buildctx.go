// Package buildctx assembles the Docker build context for the test
// environment image: the Dockerfile plus the per-team environment script.
package buildctx

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// EnvScriptName returns the file name of a team's environment setup script.
// The script's contents are opaque to shardci; it is passed to the image
// build as an argument and sourced inside the container.
func EnvScriptName(team string) string {
	return fmt.Sprintf("%s.tests.env.sh", team)
}

// Stage validates and copies the configured build context into a scratch
// directory, returning its path. The caller is responsible for removing the
// returned directory. Staging fails before any daemon call when the
// Dockerfile or the team's environment script is missing.
func Stage(contextDir, dockerfile, team string) (string, error) {
	if _, err := os.Stat(contextDir); os.IsNotExist(err) {
		return "", fmt.Errorf("build context directory not found: %s", contextDir)
	}

	if _, err := os.Stat(filepath.Join(contextDir, dockerfile)); os.IsNotExist(err) {
		return "", fmt.Errorf("dockerfile not found in build context: %s", dockerfile)
	}

	envScript := EnvScriptName(team)
	if _, err := os.Stat(filepath.Join(contextDir, envScript)); os.IsNotExist(err) {
		return "", fmt.Errorf("team environment script not found in build context: %s", envScript)
	}

	stagingDir, err := os.MkdirTemp("", "shardci-buildctx-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	if err := copyDirectory(contextDir, stagingDir); err != nil {
		os.RemoveAll(stagingDir)
		return "", fmt.Errorf("failed to stage build context: %w", err)
	}

	return stagingDir, nil
}

// copyDirectory recursively copies a directory from src to dst.
func copyDirectory(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0750)
		}

		return copyFile(path, destPath)
	})
}

// copyFile copies a single file from src to dst, preserving its mode so
// executable setup scripts stay executable.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return nil
}
