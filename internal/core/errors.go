package core

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from a source. A record set
// with missing required columns is rejected wholesale at the load boundary;
// no partial analysis happens on it.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// NewSchemaError returns a SchemaError for the given missing columns, or nil
// when nothing is missing.
func NewSchemaError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{Missing: missing}
}
