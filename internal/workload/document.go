package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ttverify/internal/model"
)

// Document is the YAML/TOML shape of a workload.
type Document struct {
	Name  string    `yaml:"name" toml:"name"`
	Flows []FlowDoc `yaml:"flows" toml:"flows"`
}

// FlowDoc is one flow entry. A nil Deadline defaults to Period.
type FlowDoc struct {
	Name     string   `yaml:"name" toml:"name"`
	Path     []string `yaml:"path" toml:"path"`
	Period   int      `yaml:"period" toml:"period"`
	Deadline *int     `yaml:"deadline" toml:"deadline"`
	Phase    int      `yaml:"phase" toml:"phase"`
	Priority int      `yaml:"priority" toml:"priority"`
	Attempts []int    `yaml:"attempts" toml:"attempts"`
}

// Workload converts the document into a workload with normalized names.
func (d Document) Workload() *model.Workload {
	w := &model.Workload{Name: d.Name}
	for _, fd := range d.Flows {
		f := model.Flow{
			Name:     fd.Name,
			Path:     fd.Path,
			Period:   fd.Period,
			Deadline: fd.Period,
			Phase:    fd.Phase,
			Priority: fd.Priority,
			Attempts: fd.Attempts,
		}
		if fd.Deadline != nil {
			f.Deadline = *fd.Deadline
		}
		w.Flows = append(w.Flows, f)
	}
	w.Normalize()
	return w
}

// ParseYAML decodes a YAML workload. Unknown fields are rejected.
//
//	name: plant
//	flows:
//	  - name: F0
//	    path: [N1, N2]
//	    period: 10
//	    attempts: [1]
func ParseYAML(data []byte) (*model.Workload, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: "workload is empty"}
		}
		code := ErrCodeParseFailed
		if strings.Contains(err.Error(), "not found in type") {
			code = ErrCodeUnknownField
		}
		return nil, &LoadError{Code: code, Message: fmt.Sprintf("decode yaml: %v", err)}
	}
	return doc.Workload(), nil
}

// ParseTOML decodes a TOML workload with one [[flows]] table per flow.
// Unknown keys are rejected.
func ParseTOML(data []byte) (*model.Workload, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decode toml: %v", err)}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &LoadError{
			Code:    ErrCodeUnknownField,
			Message: fmt.Sprintf("unknown keys: %s", strings.Join(keys, ", ")),
		}
	}
	return doc.Workload(), nil
}
