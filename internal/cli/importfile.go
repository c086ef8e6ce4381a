package cli

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed import.schema.json
var importSchemaJSON []byte

const importSchemaURL = "https://todolist.local/schemas/import.schema.json"

// ImportEntry is one entry of an import file. Ids and timestamps of a
// previous export are ignored. Deleted entries from a saved delta list are
// skipped by the import command.
type ImportEntry struct {
	Title    string  `json:"title"`
	Notes    *string `json:"notes"`
	Complete bool    `json:"complete"`
	Deleted  bool    `json:"deleted"`
}

// ParseImport validates data against the import schema and decodes it. Both
// a bare array and the {"entries": [...]} shape of a list response are
// accepted.
func ParseImport(data []byte) ([]ImportEntry, error) {
	schema, err := compileImportSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	err = dec.Decode(&doc)
	if err == nil {
		if _, tokErr := dec.Token(); tokErr != io.EOF {
			err = errors.New("invalid character after top-level value")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, fmt.Errorf("import file does not match schema: %s", describe(ve))
		}
		return nil, err
	}

	var wrapped struct {
		Entries []ImportEntry `json:"entries"`
	}
	if _, isArray := doc.([]any); isArray {
		if err := json.Unmarshal(data, &wrapped.Entries); err != nil {
			return nil, fmt.Errorf("decode import file: %w", err)
		}
	} else if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	return wrapped.Entries, nil
}

func compileImportSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(importSchemaURL, bytes.NewReader(importSchemaJSON)); err != nil {
		return nil, fmt.Errorf("load import schema: %w", err)
	}
	schema, err := compiler.Compile(importSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile import schema: %w", err)
	}
	return schema, nil
}

// describe flattens the deepest causes into "location: message" pairs.
func describe(ve *jsonschema.ValidationError) string {
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
