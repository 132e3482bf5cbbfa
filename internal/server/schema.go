package server

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/broadcast.json
var broadcastSchemaJSON string

const broadcastSchemaURL = "https://parish.local/schema/broadcast.json"

// compileBroadcastSchema compiles the embedded request schema for
// POST /v1/broadcasts.
func compileBroadcastSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(broadcastSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse broadcast schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(broadcastSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add broadcast schema: %w", err)
	}
	sch, err := c.Compile(broadcastSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile broadcast schema: %w", err)
	}
	return sch, nil
}

// validateAgainst checks a raw JSON body against sch.
func validateAgainst(sch *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return sch.Validate(inst)
}
