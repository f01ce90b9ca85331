package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Role identifies the checkpoint an artifact was captured at.
type Role string

const (
	RoleBaseline  Role = "baseline"
	RoleLocalized Role = "localized"
	RoleError     Role = "error"
)

// Artifact is a screenshot persisted to disk. It is never rewritten within a run.
type Artifact struct {
	Role Role
	Path string
	Size int
}

// Output names the directory and file names artifacts are written to.
type Output struct {
	Dir       string
	Baseline  string
	Localized string
	Error     string
}

func (o Output) path(role Role) string {
	var name string
	switch role {
	case RoleBaseline:
		name = o.Baseline
	case RoleLocalized:
		name = o.Localized
	default:
		name = o.Error
	}
	return filepath.Join(o.Dir, name)
}

// prepare creates the output directory and removes artifacts left by a
// previous run so the directory only ever reflects the latest outcome.
func (o Output) prepare() error {
	if err := os.MkdirAll(o.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, role := range []Role{RoleBaseline, RoleLocalized, RoleError} {
		if err := os.Remove(o.path(role)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale %s artifact: %w", role, err)
		}
	}
	return nil
}

func (o Output) write(role Role, data []byte) (Artifact, error) {
	if len(data) == 0 {
		return Artifact{}, fmt.Errorf("%s screenshot is empty", role)
	}
	path := o.path(role)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Artifact{}, fmt.Errorf("write %s: %w", path, err)
	}
	return Artifact{Role: role, Path: path, Size: len(data)}, nil
}
