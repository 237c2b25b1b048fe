// Package policyfile loads policy documents from JSON files so an operator
// can seed the policy engine without touching code.
//
// Every document is validated against a JSON Schema before it reaches the
// engine; a malformed file is rejected as a whole.
package policyfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/policy"
	"github.com/arkavo-labs/accord/pkg/principal"
)

const schemaURL = "https://arkavo.local/schemas/policy.schema.json"

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["resource_id", "required_attributes", "min_entitlement"],
  "additionalProperties": false,
  "properties": {
    "resource_id": {"type": "string", "minLength": 1, "maxLength": 256},
    "required_attributes": {
      "type": "array",
      "maxItems": 50,
      "items": {
        "type": "object",
        "required": ["name", "value"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1, "maxLength": 256},
          "value": {"type": "string", "maxLength": 256}
        }
      }
    },
    "min_entitlement": {"type": "integer", "minimum": 0, "maximum": 3},
    "condition": {"type": "string"}
  }
}`

// Document is one policy definition as found on disk.
type Document struct {
	ResourceID         string                 `json:"resource_id"`
	RequiredAttributes []policy.AttributePair `json:"required_attributes"`
	MinEntitlement     uint8                  `json:"min_entitlement"`
	Condition          string                 `json:"condition,omitempty"`
}

// Loader validates and parses policy documents.
type Loader struct {
	schema *jsonschema.Schema
}

// NewLoader compiles the document schema.
func NewLoader() (*Loader, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("policyfile: add schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("policyfile: compile schema: %w", err)
	}
	return &Loader{schema: schema}, nil
}

// Parse validates raw JSON against the schema and decodes it.
func (l *Loader) Parse(raw []byte) (*Document, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("policyfile: parse: %w", err)
	}
	if err := l.schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("policyfile: schema validation failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("policyfile: decode: %w", err)
	}
	return &doc, nil
}

// LoadFile parses a single policy document from disk.
func (l *Loader) LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policyfile: read %s: %w", path, err)
	}
	doc, err := l.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("policyfile: %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// LoadDir parses every .json document in the directory, sorted by name.
func (l *Loader) LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("policyfile: read dir %s: %w", dir, err)
	}
	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		doc, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Apply creates each document as a policy in the engine on behalf of the
// caller, returning the assigned policy ids in document order.
func Apply(engine *policy.Engine, caller principal.Principal, docs []*Document) ([]uint32, error) {
	ids := make([]uint32, 0, len(docs))
	for _, doc := range docs {
		id, err := engine.Create(caller, policy.RuleSpec{
			ResourceID:         doc.ResourceID,
			RequiredAttributes: doc.RequiredAttributes,
			MinEntitlement:     entitlement.Level(doc.MinEntitlement),
			Condition:          doc.Condition,
		})
		if err != nil {
			return ids, fmt.Errorf("policyfile: create %q: %w", doc.ResourceID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
