// Package validate provides structural validation for pipeline definitions
// and the build-instruction documents they carry.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/shlex"
	"github.com/initializ/envpipe/schemas"
	"github.com/xeipuuv/gojsonschema"
)

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(schemas.BuildSpecSchema)
		compiledSchema, compileErr = gojsonschema.NewSchema(loader)
	})
	return compiledSchema, compileErr
}

// ValidateBuildSpec checks a build-instruction document against the build
// spec schema and checks that every phase command tokenizes cleanly. It
// returns one description per problem found, and an error only when the
// schema itself cannot be compiled or the document cannot be encoded.
//
// The document is otherwise opaque: nothing here interprets the commands.
func ValidateBuildSpec(doc map[string]any) ([]string, error) {
	if doc == nil {
		return []string{"build spec is required"}, nil
	}

	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling build spec schema: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding build spec: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating build spec: %w", err)
	}

	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	if len(problems) > 0 {
		return problems, nil
	}

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decoding build spec: %w", err)
	}
	return checkCommands(generic), nil
}

func checkCommands(doc map[string]any) []string {
	phases, _ := doc["phases"].(map[string]any)
	names := make([]string, 0, len(phases))
	for name := range phases {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		phase, _ := phases[name].(map[string]any)
		cmds, _ := phase["commands"].([]any)
		for i, c := range cmds {
			s, _ := c.(string)
			if _, err := shlex.Split(s); err != nil {
				problems = append(problems, fmt.Sprintf("phases.%s.commands[%d]: %v", name, i, err))
			}
		}
	}
	return problems
}
