package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// planLimitsSchema describes the shape every plan's limits blob must have
// before it is persisted. -1 marks an unlimited resource; any other value
// must be a non-negative number.
const planLimitsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["maxUsers", "maxClients", "maxStorageGB"],
  "properties": {
    "maxUsers":     {"type": "integer", "minimum": -1},
    "maxClients":   {"type": "integer", "minimum": -1},
    "maxStorageGB": {"type": "number", "minimum": 0},
    "aiLimit":      {"type": "integer", "minimum": -1},
    "modules": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    }
  },
  "additionalProperties": false
}`

// LimitsValidator validates plan limit documents against the canonical schema.
// The compiled schema is cached after the first use.
type LimitsValidator struct {
	once     sync.Once
	compiled *jsonschema.Schema
	initErr  error
}

// NewLimitsValidator returns a validator; compilation is deferred to first use.
func NewLimitsValidator() *LimitsValidator {
	return &LimitsValidator{}
}

// Validate ensures the payload is a well-formed limits document.
func (v *LimitsValidator) Validate(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("limits payload is required")
	}

	compiled, err := v.getOrCompile()
	if err != nil {
		return err
	}

	var document any
	if err := json.Unmarshal(payload, &document); err != nil {
		return fmt.Errorf("decode limits: %w", err)
	}

	if err := compiled.Validate(document); err != nil {
		return fmt.Errorf("limits validation: %w", err)
	}

	return nil
}

func (v *LimitsValidator) getOrCompile() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		const key = "memory://schemas/plan-limits"

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(key, strings.NewReader(planLimitsSchema)); err != nil {
			v.initErr = fmt.Errorf("register limits schema: %w", err)
			return
		}

		compiled, err := compiler.Compile(key)
		if err != nil {
			v.initErr = fmt.Errorf("compile limits schema: %w", err)
			return
		}

		v.compiled = compiled
	})

	if v.initErr != nil {
		return nil, v.initErr
	}
	return v.compiled, nil
}
