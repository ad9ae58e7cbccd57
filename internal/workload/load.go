package workload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/ttverify/internal/model"
)

// Load reads a workload file or CUE package directory. The workload name
// defaults to the file's base name.
func Load(path string) (*model.Workload, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "workload not found"}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Path: path, Message: fmt.Sprintf("stat workload: %v", err)}
	}

	var w *model.Workload
	if info.IsDir() {
		w, err = loadCUEDir(path)
	} else {
		w, err = loadFile(path)
	}
	if err != nil {
		return nil, withPath(err, path)
	}

	if w.Name == "" {
		w.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return w, nil
}

func loadFile(path string) (*model.Workload, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".cue", ".yaml", ".yml", ".toml":
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported workload format %q (want .cue, .yaml, .yml or .toml)", ext),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("read workload: %v", err)}
	}

	switch ext {
	case ".cue":
		return ParseCUE(data, path)
	case ".toml":
		return ParseTOML(data)
	default:
		return ParseYAML(data)
	}
}

func withPath(err error, path string) error {
	var le *LoadError
	if errors.As(err, &le) && le.Path == "" {
		le.Path = path
	}
	return err
}

// LoadValidated loads a workload and runs model.Validate on it. A workload
// with validation errors is still returned so callers can report it.
func LoadValidated(path string) (*model.Workload, []model.ValidationError, error) {
	w, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	return w, model.Validate(w), nil
}
