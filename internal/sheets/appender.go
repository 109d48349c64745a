// Package sheets appends tracker rows to a Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Worksheet is one tab of a spreadsheet.
type Worksheet interface {
	AppendRow(ctx context.Context, row []any) error
}

// Opener resolves a spreadsheet and tab by name. An empty worksheet name means
// the first tab.
type Opener interface {
	Open(ctx context.Context, spreadsheet, worksheet string) (Worksheet, error)
}

// Appender writes rows to one named worksheet. The worksheet is opened on the
// first Append and reused afterwards; a failed open is retried next time.
type Appender struct {
	opener      Opener
	spreadsheet string
	worksheet   string

	mu sync.Mutex
	ws Worksheet
}

func NewAppender(opener Opener, spreadsheet, worksheet string) *Appender {
	return &Appender{opener: opener, spreadsheet: spreadsheet, worksheet: worksheet}
}

// Append validates row and adds it as the last row of the worksheet. Errors
// are *DataValidationError, *CredentialsError or *SheetConnectionError.
func (a *Appender) Append(ctx context.Context, row []any) error {
	if err := ValidateRow(row); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ws == nil {
		ws, err := a.opener.Open(ctx, a.spreadsheet, a.worksheet)
		if err != nil {
			return a.classify(err, "open")
		}
		a.ws = ws
	}

	if err := a.ws.AppendRow(ctx, row); err != nil {
		// tab may have been renamed or deleted; resolve again next time
		a.ws = nil
		return a.classify(err, "append row")
	}
	return nil
}

func (a *Appender) classify(err error, op string) error {
	var credErr *CredentialsError
	var connErr *SheetConnectionError
	if errors.As(err, &credErr) || errors.As(err, &connErr) {
		return err
	}
	return &SheetConnectionError{
		Spreadsheet: a.spreadsheet,
		Worksheet:   a.worksheet,
		Msg:         "failed to " + op,
		Err:         err,
	}
}

// ValidateRow accepts a non-empty row of strings, booleans and numbers.
func ValidateRow(row []any) error {
	if len(row) == 0 {
		return &DataValidationError{Reason: "row data cannot be empty"}
	}
	for i, v := range row {
		if !isScalar(v) {
			return &DataValidationError{
				Reason: fmt.Sprintf("column %d is %T; rows can only contain strings, numbers or booleans", i+1, v),
			}
		}
	}
	return nil
}

func isScalar(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
