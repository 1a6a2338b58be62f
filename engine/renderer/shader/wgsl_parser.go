package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps the float WGSL types a vertex input may declare to their wgpu vertex format.
// Attribute buffers only ever hold float32 data so integer inputs are not bindable.
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 1},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 2},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 2},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 3},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 3},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 4},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 4},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field or parameter: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`^(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*(.+)$`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
)

// parseEntryPoint extracts the entry point function name for the given stage.
// Returns an empty string if no matching entry point attribute is found.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - stage: the stage to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, stage Stage) string {
	var re *regexp.Regexp
	switch stage {
	case StageVertex:
		re = vertexEntryRegex
	case StageFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}
	if match := re.FindStringSubmatch(source); match != nil {
		return match[1]
	}
	return ""
}

// parseInputs collects the @location inputs of a vertex entry point. Inputs are read from the
// entry point's parameter list, expanding parameters whose type is a struct declared in the source.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - entry: the vertex entry point name
//
// Returns:
//   - []Input: the inputs sorted by location
//   - error: an error if an input has a non-float type or a location is declared twice
func parseInputs(source, entry string) ([]Input, error) {
	params, ok := entryParams(source, entry)
	if !ok {
		return nil, fmt.Errorf("vertex entry point %q has no parameter list", entry)
	}

	structs := make(map[string]parsedStruct)
	for _, ps := range parseStructBlocks(source) {
		structs[ps.name] = ps
	}

	var fields []parsedField
	for _, p := range parseFields(params) {
		if ps, ok := structs[p.typeName]; ok && p.location < 0 && !p.isBuiltin {
			fields = append(fields, ps.fields...)
			continue
		}
		fields = append(fields, p)
	}

	seen := make(map[int]string)
	inputs := make([]Input, 0, len(fields))
	for _, f := range fields {
		if f.isBuiltin || f.location < 0 {
			continue
		}
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return nil, fmt.Errorf("input %q: type %s is not a float vertex type", f.name, f.typeName)
		}
		if other, dup := seen[f.location]; dup {
			return nil, fmt.Errorf("inputs %q and %q share location %d", other, f.name, f.location)
		}
		seen[f.location] = f.name
		inputs = append(inputs, Input{
			Name:     f.name,
			Location: uint32(f.location),
			Format:   info.format,
			Floats:   info.floats,
		})
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })
	return inputs, nil
}

// entryParams returns the text between the parentheses of the named function's parameter list.
func entryParams(source, entry string) (string, bool) {
	loc := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(entry) + `\s*\(`).FindStringIndex(source)
	if loc == nil {
		return "", false
	}
	start := loc[1]
	depth := 1
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return source[start:i], true
			}
		}
	}
	return "", false
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseFields(match[2]),
		})
	}
	return structs
}

// parseFields parses a comma separated struct body or parameter list into fields,
// extracting @location and @builtin attributes along with the name and type.
func parseFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(part) {
			field.isBuiltin = true
		}
		if m := locationRegex.FindStringSubmatch(part); m != nil {
			if loc, err := strconv.Atoi(m[1]); err == nil {
				field.location = loc
			}
		}
		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.Join(strings.Fields(fm[2]), "")
		fields = append(fields, field)
	}
	return fields
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets
// or parentheses, so types like array<T, N> and attributes like @interpolate(flat, either)
// stay whole.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes line and block comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes single-line // comments from WGSL source.
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments (/* ... */) from WGSL source,
// handling nested block comments as WGSL allows
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}
