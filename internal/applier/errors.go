package applier

import (
	"fmt"

	"github.com/tordrt/tablesmith/internal/db"
)

// MetadataError reports an entity whose table definition is missing a
// required descriptor (most often the table name) or cannot be rendered.
type MetadataError struct {
	Entity string
	Err    error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("table metadata for %s: %v", e.Entity, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// ExecutionError reports a statement the database rejected. Nothing after
// the failing statement was executed.
type ExecutionError struct {
	Table     string
	Category  string
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %s statement for table %s: %v", e.Category, e.Table, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Code returns the driver-native error code (SQLSTATE or error number), or
// "" when the driver reported none.
func (e *ExecutionError) Code() string { return db.ErrorCode(e.Err) }
