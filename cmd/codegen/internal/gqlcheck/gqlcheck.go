// Package gqlcheck validates GraphQL operation documents against an SDL
// schema before they are handed to a code generator.
package gqlcheck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	"github.com/vektah/gqlparser/v2/validator/core"
	"github.com/vektah/gqlparser/v2/validator/rules"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/incremental"
)

// ErrIntrospectionSchema is returned when asked to load a JSON introspection
// result; only SDL schemas can be validated against.
var ErrIntrospectionSchema = errors.New("query validation needs an SDL schema, not JSON introspection")

// Problem is a single validation failure, located in its source file.
type Problem struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (p Problem) String() string {
	switch {
	case p.File == "":
		return p.Message
	case p.Line == 0:
		return fmt.Sprintf("%s: %s", p.File, p.Message)
	default:
		return fmt.Sprintf("%s:%d:%d: %s", p.File, p.Line, p.Column, p.Message)
	}
}

// Result summarizes a validation run.
type Result struct {
	Files      []string
	Operations []string // "query Name", "mutation Name"
	Problems   []Problem
}

// OK reports whether no problems were found.
func (r *Result) OK() bool {
	return len(r.Problems) == 0
}

// LoadSchema parses an SDL schema file. Schemas printed from introspection
// declare the built-in scalars themselves; the prelude is only merged in when
// they are absent.
func LoadSchema(path string) (*ast.Schema, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, fmt.Errorf("%s: %w", path, ErrIntrospectionSchema)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := parser.ParseSchema(&ast.Source{Name: path, Input: string(data)})
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if doc.Definitions.ForName("String") == nil {
		prelude, err := parser.ParseSchema(validator.Prelude)
		if err != nil {
			return nil, err
		}
		doc.Merge(prelude)
	}

	schema, err := validator.ValidateSchemaDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return schema, nil
}

// CheckGlob loads the schema and validates every file matching pattern.
// A pattern that matches nothing is an error.
func CheckGlob(schemaPath, pattern string) (*Result, error) {
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return nil, err
	}

	files, err := incremental.ExpandGlob(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("includes %q: %w", pattern, incremental.ErrNoFiles)
	}
	return Check(schema, files)
}

// span records which combined-document lines came from which file.
type span struct {
	file  string
	start int // first line, 1-based
	lines int
}

// loneAnonymousMessage reports an anonymous operation that shares its file
// with other operations.
const loneAnonymousMessage = "This anonymous operation must be the only defined operation in its file."

// Check validates files as one document, so fragments may be defined in one
// file and spread in another, the way code generators consume them. The
// lone-anonymous-operation rule is applied per file instead, since each file
// may hold its own anonymous operation.
func Check(schema *ast.Schema, files []string) (*Result, error) {
	result := &Result{Files: files}

	var (
		combined strings.Builder
		spans    []span
		line     = 1
	)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		content := string(data)
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		n := strings.Count(content, "\n")
		spans = append(spans, span{file: file, start: line, lines: n})
		combined.WriteString(content)
		line += n

		result.Problems = append(result.Problems, loneAnonymous(file, content)...)
	}

	doc, errs := gqlparser.LoadQueryWithRules(schema, combined.String(), combinedRules())
	for _, e := range errs {
		result.Problems = append(result.Problems, locate(e, spans))
	}
	if doc != nil {
		for _, op := range doc.Operations {
			result.Operations = append(result.Operations, strings.TrimSpace(string(op.Operation)+" "+op.Name))
		}
	}
	return result, nil
}

// combinedRules are the default validation rules adjusted for a document
// joined from several files: anonymous operations are checked per file and
// are exempt from name uniqueness.
func combinedRules() *rules.Rules {
	r := rules.NewDefaultRules()
	r.RemoveRule(rules.LoneAnonymousOperationRule.Name)
	r.ReplaceRule(rules.UniqueOperationNamesRule.Name, func(observers *core.Events, addError core.AddErrFunc) {
		seen := make(map[string]bool)
		observers.OnOperation(func(_ *core.Walker, op *ast.OperationDefinition) {
			if op.Name == "" {
				return
			}
			if seen[op.Name] {
				addError(
					core.Message(`There can be only one operation named "%s".`, op.Name),
					core.At(op.Position),
				)
			}
			seen[op.Name] = true
		})
	})
	return r
}

// loneAnonymous checks a single file for an anonymous operation declared
// next to other operations. Syntax errors are left to the combined pass.
func loneAnonymous(file, content string) []Problem {
	doc, err := parser.ParseQuery(&ast.Source{Name: file, Input: content})
	if err != nil || len(doc.Operations) < 2 {
		return nil
	}

	var problems []Problem
	for _, op := range doc.Operations {
		if op.Name != "" {
			continue
		}
		p := Problem{File: file, Message: loneAnonymousMessage}
		if op.Position != nil {
			p.Line = op.Position.Line
			p.Column = op.Position.Column
		}
		problems = append(problems, p)
	}
	return problems
}

func locate(e *gqlerror.Error, spans []span) Problem {
	p := Problem{Message: e.Message}
	if len(e.Locations) == 0 {
		return p
	}

	loc := e.Locations[0]
	for _, s := range spans {
		if loc.Line >= s.start && loc.Line < s.start+s.lines {
			p.File = s.file
			p.Line = loc.Line - s.start + 1
			p.Column = loc.Column
			break
		}
	}
	return p
}
