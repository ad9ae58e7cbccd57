package workload

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/ttverify/internal/model"
)

// ParseCUE compiles CUE source into a workload.
func ParseCUE(data []byte, filename string) (*model.Workload, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fromCUEError(ErrCodeParseFailed, err)
	}
	return CompileWorkload(v)
}

// loadCUEDir loads every .cue file of dir as one CUE package.
func loadCUEDir(dir string) (*model.Workload, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeParseFailed, Path: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Path: dir, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, fromCUEError(ErrCodeBuildFailed, err)
	}
	return CompileWorkload(v)
}

// CompileWorkload reads the optional `workload` name and every field of
// the `flow` struct, in declaration order.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`flow: F0: { path: ["A", "B"], period: 10, attempts: [1] }`)
//	w, err := CompileWorkload(v)
func CompileWorkload(v cue.Value) (*model.Workload, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUEError(ErrCodeBuildFailed, err)
	}

	w := &model.Workload{}
	if nameVal := v.LookupPath(cue.ParsePath("workload")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, fromCUEError(ErrCodeInvalidType, err)
		}
		w.Name = name
	}

	flowsVal := v.LookupPath(cue.ParsePath("flow"))
	if !flowsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeMissingField, Message: "flow is required", Pos: v.Pos()}
	}
	iter, err := flowsVal.Fields()
	if err != nil {
		return nil, fromCUEError(ErrCodeInvalidType, err)
	}
	for iter.Next() {
		f, err := compileFlow(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		w.Flows = append(w.Flows, f)
	}

	w.Normalize()
	return w, nil
}

func compileFlow(name string, v cue.Value) (model.Flow, error) {
	f := model.Flow{Name: name}
	var err error

	if f.Path, err = requiredStrings(v, "path"); err != nil {
		return f, err
	}
	if f.Period, err = requiredInt(v, "period"); err != nil {
		return f, err
	}
	if f.Attempts, err = requiredInts(v, "attempts"); err != nil {
		return f, err
	}

	// Deadline defaults to the period
	f.Deadline = f.Period
	if _, err = optionalInt(v, "deadline", &f.Deadline); err != nil {
		return f, err
	}
	if _, err = optionalInt(v, "phase", &f.Phase); err != nil {
		return f, err
	}
	if _, err = optionalInt(v, "priority", &f.Priority); err != nil {
		return f, err
	}
	return f, nil
}

func missing(v cue.Value, field string) *LoadError {
	return &LoadError{Code: ErrCodeMissingField, Message: field + " is required", Pos: v.Pos()}
}

func requiredInt(v cue.Value, field string) (int, error) {
	var n int
	ok, err := optionalInt(v, field, &n)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, missing(v, field)
	}
	return n, nil
}

// optionalInt stores the field into dst if present. Floats are rejected:
// slot arithmetic is integral.
func optionalInt(v cue.Value, field string, dst *int) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return false, &LoadError{
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("%s must be an integer", field),
			Pos:     fv.Pos(),
		}
	}
	*dst = int(n)
	return true, nil
}

func requiredInts(v cue.Value, field string) ([]int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, missing(v, field)
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidType, Message: field + " must be a list", Pos: fv.Pos()}
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidType,
				Message: fmt.Sprintf("%s entries must be integers", field),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, int(n))
	}
	return out, nil
}

func requiredStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, missing(v, field)
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidType, Message: field + " must be a list", Pos: fv.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidType,
				Message: fmt.Sprintf("%s entries must be strings", field),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}
