// Package schema checks normalized messages against the fixed message contract
// before they are allowed into the gluer. Invalid records are dropped, never repaired.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

const schemaURL = "message.schema.json"

//go:embed message.schema.json
var messageSchema []byte

// Validator validates normalized messages against the compiled schema.
// It is safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded message schema.
func New() (*Validator, error) {
	return NewFromBytes(messageSchema)
}

// NewFromBytes compiles a schema document.
func NewFromBytes(raw []byte) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode message schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add message schema: %w", err)
	}

	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile message schema: %w", err)
	}

	return &Validator{schema: sch}, nil
}

// Check returns the violation, if any, for a single message.
func (v *Validator) Check(msg domain.NormalizedMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	return v.CheckJSON(raw)
}

// CheckJSON validates an already encoded message document.
func (v *Validator) CheckJSON(raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	if err := v.schema.Validate(inst); err != nil {
		return fmt.Errorf("validate message: %w", err)
	}

	return nil
}

// Validate passes valid messages through and skips invalid ones with the violation as detail.
func (v *Validator) Validate(msg domain.NormalizedMessage) domain.Result[domain.NormalizedMessage] {
	if err := v.Check(msg); err != nil {
		return domain.Skip[domain.NormalizedMessage](domain.SkipSchemaInvalid, err.Error())
	}

	return domain.Ok(msg)
}
