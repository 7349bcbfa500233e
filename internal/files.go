package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// An UnsupportedPathError reports a path with a non-local scheme, such
// as an object-storage URI.
type UnsupportedPathError struct {
	Path string
}

func (e *UnsupportedPathError) Error() string {
	return fmt.Sprintf("cloud-based path is not supported: %v", e.Path)
}

// A ValidationError reports the path check that a given path violated.
type ValidationError struct {
	Path      string
	Condition string
}

func (e *ValidationError) Error() string {
	switch e.Condition {
	case "file":
		return fmt.Sprintf("path does not point to a regular file: %v", e.Path)
	case "dir":
		return fmt.Sprintf("path does not point to a directory: %v", e.Path)
	default:
		return fmt.Sprintf("path does not exist: %v", e.Path)
	}
}

// ErrConflictingChecks is returned when a path is checked for being
// both a file and a directory.
var ErrConflictingChecks = errors.New("a path can point to either a file or a directory, not both")

func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

// ResolvePath turns a local path into an absolute, symlink-resolved
// one, expanding a leading ~ to the user's home directory. Cloud
// storage URIs (s3:, gcs:) are rejected.
func ResolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "s3:") || strings.HasPrefix(path, "gcs:") {
		return "", &UnsupportedPathError{Path: path}
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	full, err := FullPathname(path)
	if err != nil {
		return "", err
	}
	full = filepath.Clean(full)
	// The leaf may not exist yet; keep the cleaned absolute path then.
	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		return resolved, nil
	}
	return full, nil
}

// CheckOptions selects the conditions CheckPath verifies. IsFile and
// IsDir are mutually exclusive.
type CheckOptions struct {
	IsFile bool
	IsDir  bool
	Exists bool
}

// CheckPath verifies that a path satisfies the requested conditions.
func CheckPath(path string, opts CheckOptions) error {
	if opts.IsFile && opts.IsDir {
		return ErrConflictingChecks
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if opts.Exists || opts.IsFile || opts.IsDir {
				return &ValidationError{Path: path, Condition: "exists"}
			}
			return nil
		}
		return err
	}
	if opts.IsFile && !info.Mode().IsRegular() {
		return &ValidationError{Path: path, Condition: "file"}
	}
	if opts.IsDir && !info.IsDir() {
		return &ValidationError{Path: path, Condition: "dir"}
	}
	return nil
}

// EnsureDir creates a directory, with missing parents when parents is
// set. An existing directory is an error unless existOK is set.
func EnsureDir(path string, parents, existOK bool) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists and is not a directory: %v", path)
		}
		if existOK {
			return nil
		}
		return fmt.Errorf("directory already exists: %v", path)
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access %v: %w", path, err)
	}
	if parents {
		err = os.MkdirAll(path, 0755)
	} else {
		err = os.Mkdir(path, 0755)
	}
	if err != nil {
		return fmt.Errorf("cannot create directory %v: %w", path, err)
	}
	return nil
}
