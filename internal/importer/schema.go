package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ImportSchema is the top-level JSON structure for a bulk requirement import
// into an existing project.
type ImportSchema struct {
	Subjects     []SubjectImport     `json:"subjects,omitempty"`
	Requirements []RequirementImport `json:"requirements"`
}

// SubjectImport defines a subject created alongside the requirements.
type SubjectImport struct {
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RequirementImport defines one requirement and its first version.
// ParentRef must name a requirement that appears earlier in the list.
type RequirementImport struct {
	Ref        string   `json:"ref"`
	ParentRef  *string  `json:"parent_ref,omitempty"`
	SubjectRef *string  `json:"subject_ref,omitempty"`
	Title      string   `json:"title"`
	Statement  string   `json:"statement"`
	Rationale  *string  `json:"rationale,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Priority   *int     `json:"priority,omitempty"`
	Status     string   `json:"status,omitempty"`
}

// Decode parses an import document, rejecting unknown fields.
func Decode(r io.Reader) (*ImportSchema, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var schema ImportSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}

// LoadImportSchema reads and parses an import JSON file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
