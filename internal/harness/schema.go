package harness

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed scenario.cue
var scenarioSchema string

// Validation error codes.
const (
	ErrCodeRead     = "E201" // scenario file unreadable
	ErrCodeSyntax   = "E202" // not valid YAML
	ErrCodeSchema   = "E203" // violates the CUE schema
	ErrCodeSemantic = "E204" // schema-valid but inconsistent
)

// ValidationError is one problem found in a scenario file.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateScenarioFile checks a scenario file against the embedded CUE
// schema and then against the cross-field rules LoadScenario enforces.
// Returns all schema errors found; semantic checks run only on a
// schema-valid file.
func ValidateScenarioFile(path string) []ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{Field: path, Message: err.Error(), Code: ErrCodeRead}}
	}
	return ValidateScenario(path, data)
}

// ValidateScenario is ValidateScenarioFile on in-memory content.
// filename is used for error positions only.
func ValidateScenario(filename string, data []byte) []ValidationError {
	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioSchema, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("harness: compile scenario schema: %v", err))
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return convertCUEErrors(err, filename, ErrCodeSyntax)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return convertCUEErrors(err, filename, ErrCodeSyntax)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convertCUEErrors(err, filename, ErrCodeSchema)
	}

	if _, err := ParseScenario(data); err != nil {
		return []ValidationError{{Field: "scenario", Message: err.Error(), Code: ErrCodeSemantic}}
	}
	return nil
}

func convertCUEErrors(err error, filename, code string) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		}
		if ve.Field == "" {
			ve.Field = "scenario"
		}
		for _, pos := range append([]token.Pos{e.Position()}, e.InputPositions()...) {
			if pos.Filename() == filename && pos.Line() > 0 {
				ve.Line = pos.Line()
				break
			}
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Field: "scenario", Message: err.Error(), Code: code})
	}
	return out
}
