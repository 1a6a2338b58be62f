package shader

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
)

// Stage identifies the pipeline stage a shader source is compiled for.
type Stage int

const (
	// StageVertex is the vertex stage. Its entry point inputs are bound to attribute buffers by name.
	StageVertex Stage = iota

	// StageFragment is the fragment stage.
	StageFragment
)

// String returns the WGSL attribute name of the stage.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

// ErrNoEntryPoint is returned when a source has no entry point for the requested stage.
var ErrNoEntryPoint = errors.New("shader: no entry point")

// shader is the implementation of the Shader interface.
// It holds the host supplied WGSL source and what the renderer needs to know about it.
type shader struct {
	key        string
	source     string
	stage      Stage
	entryPoint string
	inputs     []Input
}

// Shader is an inspected WGSL source. The source text is opaque to the engine; only the entry
// point and, for vertex shaders, the @location inputs are read so attribute buffers can be
// bound to the locations the shader declares for them.
type Shader interface {
	// Key returns a hash of the stage and source, used for pipeline caching.
	//
	// Returns:
	//   - string: the shader's key
	Key() string

	// Source returns the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code
	Source() string

	// Stage returns the stage this shader was inspected for.
	//
	// Returns:
	//   - Stage: the stage
	Stage() Stage

	// EntryPoint returns the entry point function name.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// Inputs returns the vertex inputs sorted by location. Fragment shaders have none.
	//
	// Returns:
	//   - []Input: the inputs
	Inputs() []Input

	// Input looks up a vertex input by name.
	//
	// Parameters:
	//   - name: the field or parameter name
	//
	// Returns:
	//   - Input: the input
	//   - bool: false if the shader declares no such input
	Input(name string) (Input, bool)
}

var _ Shader = &shader{}

// NewShader inspects WGSL source for the given stage.
//
// Parameters:
//   - stage: the stage the source is compiled for
//   - source: the WGSL source
//
// Returns:
//   - Shader: the inspected shader
//   - error: ErrNoEntryPoint, or an error describing an input the engine cannot feed
func NewShader(stage Stage, source string) (Shader, error) {
	cleaned := stripComments(source)
	s := &shader{
		key:    hashSource(stage, source),
		source: source,
		stage:  stage,
	}
	s.entryPoint = parseEntryPoint(cleaned, stage)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("%w: @%s", ErrNoEntryPoint, stage)
	}
	if stage == StageVertex {
		inputs, err := parseInputs(cleaned, s.entryPoint)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", s.entryPoint, err)
		}
		s.inputs = inputs
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Inputs() []Input {
	return s.inputs
}

func (s *shader) Input(name string) (Input, bool) {
	for _, in := range s.inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

func hashSource(stage Stage, source string) string {
	h := fnv.New64a()
	h.Write([]byte{byte(stage)})
	h.Write([]byte(source))
	return strconv.FormatUint(h.Sum64(), 16)
}
