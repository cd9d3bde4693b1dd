// Package llm defines the provider-neutral request and completion types used
// to ask a language model for structured recommendations.
package llm

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// Mode says what shape of completion a provider returns.
type Mode string

const (
	// ModeStructured providers return a payload already shaped by the schema.
	ModeStructured Mode = "structured"
	// ModeText providers return free text that must be repaired locally.
	ModeText Mode = "text"
)

// Instruction is the two-part directive sent to a model.
type Instruction struct {
	System string
	User   string
}

// Schema names and describes the JSON object the model must produce.
type Schema struct {
	Name        string
	Description string
	Document    json.RawMessage
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Completion is a provider response. Exactly one of Structured and Text is set.
type Completion struct {
	Provider   string
	Model      string
	Structured json.RawMessage
	Text       string
	StopReason string
	Usage      Usage
}

// IsStructured reports whether the payload came back schema-shaped.
func (c *Completion) IsStructured() bool {
	return len(c.Structured) > 0
}

// Raw returns the payload as text for logging and error reports.
func (c *Completion) Raw() string {
	if c.IsStructured() {
		return string(c.Structured)
	}
	return c.Text
}

// Provider is a single LLM backend.
type Provider interface {
	Name() string
	Mode() Mode
	Model() string
	// Test verifies credentials and connectivity without generating text.
	Test(ctx context.Context) error
	Complete(ctx context.Context, in Instruction, schema Schema) (*Completion, error)
}

var reflector = &jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
}

// SchemaFor reflects T into a JSON Schema document. Fields without
// omitempty are required.
func SchemaFor[T any](name, description string) (Schema, error) {
	var zero T
	s := reflector.Reflect(&zero)
	s.Version = ""
	s.ID = ""
	if description != "" {
		s.Description = description
	}

	doc, err := json.Marshal(s)
	if err != nil {
		return Schema{}, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	return Schema{Name: name, Description: description, Document: doc}, nil
}

// MustSchemaFor is SchemaFor for package-level contract declarations.
func MustSchemaFor[T any](name, description string) Schema {
	s, err := SchemaFor[T](name, description)
	if err != nil {
		panic(err)
	}
	return s
}
