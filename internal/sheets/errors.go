package sheets

import "fmt"

// DataValidationError rejects a row before anything is sent.
type DataValidationError struct {
	Reason string
}

func (e *DataValidationError) Error() string { return "invalid row: " + e.Reason }

// CredentialsError means the service account credentials are missing or
// unusable.
type CredentialsError struct {
	Path string
	Err  error
}

func (e *CredentialsError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("google credentials %s unusable", e.Path)
	}
	return fmt.Sprintf("google credentials %s: %v", e.Path, e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// SheetConnectionError covers a missing spreadsheet or tab and every other
// remote failure.
type SheetConnectionError struct {
	Spreadsheet string
	Worksheet   string
	Msg         string
	Err         error
}

func (e *SheetConnectionError) Error() string {
	target := fmt.Sprintf("%q", e.Spreadsheet)
	if e.Worksheet != "" {
		target = fmt.Sprintf("%q/%q", e.Spreadsheet, e.Worksheet)
	}
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("sheet %s: %s: %v", target, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("sheet %s: %v", target, e.Err)
	default:
		return fmt.Sprintf("sheet %s: %s", target, e.Msg)
	}
}

func (e *SheetConnectionError) Unwrap() error { return e.Err }
