package content

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed default_bank.yaml
var defaultBankYAML []byte

//go:embed bank.schema.json
var bankSchemaJSON []byte

const bankSchemaURL = "schema://parlami/bank.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Default returns the embedded content bank.
func Default() (*Bank, error) {
	return Parse(defaultBankYAML)
}

// LoadFile reads a bank from a YAML (or JSON) file. An empty path returns
// the embedded default.
func LoadFile(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content bank: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a bank document, checks it against the bank JSON Schema and
// runs Validate.
func Parse(raw []byte) (*Bank, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode content bank: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var bank Bank
	if err := yaml.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("decode content bank: %w", err)
	}
	if err := Validate(&bank); err != nil {
		return nil, err
	}
	return &bank, nil
}

func validateSchema(doc any) error {
	schema, err := bankSchema()
	if err != nil {
		return fmt.Errorf("compile bank schema: %w", err)
	}

	// Round-trip through JSON so the validator sees JSON-native values.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("content bank is not JSON-compatible: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("content bank is not JSON-compatible: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("content bank schema validation failed: %w", err)
	}
	return nil
}

func bankSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(bankSchemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(bankSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(bankSchemaURL)
	})
	return compiledSchema, compileErr
}
