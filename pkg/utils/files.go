// Package utils holds small path-resolution helpers shared by the cmd/
// front ends.
package utils

import "path/filepath"

// GetPathInfo resolves relPath to an absolute path and its containing
// directory, for clearer error messages when a CLI front end can't find or
// read its input file.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}
