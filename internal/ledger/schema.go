package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// buildRowSchema mirrors the ledger invariants: a non-empty vendor, an ISO date or
// nothing, and a non-negative two-decimal amount or nothing.
func buildRowSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":   map[string]any{"type": "string", "minLength": 1},
			"date":     map[string]any{"type": "string", "pattern": `^(\d{4}-\d{2}-\d{2})?$`},
			"amount":   map[string]any{"type": "string", "pattern": `^(\d+\.\d{2})?$`},
			"notes":    map[string]any{"type": "string"},
			"raw_text": map[string]any{"type": "string"},
		},
		"required": []string{"vendor", "date", "amount", "notes"},
	}
}

var (
	rowSchemaOnce sync.Once
	rowSchema     *jsonschema.Schema
	rowSchemaErr  error
)

func compiledRowSchema() (*jsonschema.Schema, error) {
	rowSchemaOnce.Do(func() {
		b, err := json.Marshal(buildRowSchema())
		if err != nil {
			rowSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("ledger_row.json", bytes.NewReader(b)); err != nil {
			rowSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		rowSchema, rowSchemaErr = compiler.Compile("ledger_row.json")
	})
	return rowSchema, rowSchemaErr
}

// ValidateRecord checks rec against the ledger row schema. Violations wrap
// common.ErrInvalidRecord.
func ValidateRecord(rec entity.ExpenseRecord) error {
	schema, err := compiledRowSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	doc := map[string]any{
		"vendor":   rec.Vendor,
		"date":     rec.DateString(),
		"amount":   rec.AmountString(),
		"notes":    rec.Notes,
		"raw_text": rec.RawText,
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidRecord, err)
	}
	return nil
}
