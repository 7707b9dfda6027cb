package import_

import (
	"fmt"

	"github.com/pkg/errors"
)

// Step is a state of a layer import.
type Step string

const (
	StepStage        Step = "stage"
	StepEnsureSchema Step = "ensure schema"
	StepEnsureTable  Step = "ensure table"
	StepTransfer     Step = "transfer"
	StepVerify       Step = "verify"
	StepCleanup      Step = "cleanup"
)

var (
	// ErrTransfer is the cause of transfers that copied no rows.
	ErrTransfer = errors.New("no rows transferred")
	// ErrEmptyTable is the cause of destination tables without rows
	// after the transfer.
	ErrEmptyTable = errors.New("destination table is empty")
)

// LayerError reports the failed step of a layer import.
type LayerError struct {
	Step   Step
	Schema string
	Table  string
	Err    error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("importing %s.%s failed at %s: %s", e.Schema, e.Table, e.Step, e.Err)
}

func (e *LayerError) Cause() error {
	return e.Err
}
