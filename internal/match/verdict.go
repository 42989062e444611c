package match

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Verdict is the oracle's structured answer for one artifact. A nil RowNumber
// means the oracle declined to pick a row.
type Verdict struct {
	Confidence  float64 `json:"confidence"`
	RowNumber   *int    `json:"row_number"`
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description,omitempty"`
	Rationale   string  `json:"rationale,omitempty"`
}

// verdictSchema constrains what we accept from the oracle: confidence must be
// a number in [0,1] and row_number an integer or null. Anything outside that
// is a parse failure, never a low-confidence match.
const verdictSchema = `{
	"type": "object",
	"properties": {
		"confidence":  {"type": "number", "minimum": 0, "maximum": 1},
		"row_number":  {"type": ["integer", "null"]},
		"date":        {"type": "string"},
		"description": {"type": "string"},
		"rationale":   {"type": "string"}
	},
	"required": ["confidence"]
}`

var compiledVerdictSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("verdict.json", strings.NewReader(verdictSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile("verdict.json")
})

func validateVerdictJSON(data []byte) error {
	schema, err := compiledVerdictSchema()
	if err != nil {
		return fmt.Errorf("compile verdict schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal verdict: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("verdict does not match schema: %w", err)
	}
	return nil
}

// ParseVerdict strips markdown code fences, validates the payload against the
// verdict schema, and decodes it.
func ParseVerdict(raw string) (Verdict, error) {
	cleaned := []byte(StripCodeFences(raw))

	if err := validateVerdictJSON(cleaned); err != nil {
		return Verdict{}, fmt.Errorf("verdict validation: %w", err)
	}

	var v Verdict
	if err := json.Unmarshal(cleaned, &v); err != nil {
		return Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	return v, nil
}

// StripCodeFences removes a surrounding ```json / ``` block if the model
// wrapped its answer in one.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	}
	if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}
