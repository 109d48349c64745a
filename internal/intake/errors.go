package intake

import (
	"errors"
	"fmt"

	"jobtracker/internal/sheets"
)

// PersistError stops a batch when a row could not be saved.
type PersistError struct {
	Added int
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s (%d jobs were added before the failure)", FailureMessage(e.Err), e.Added)
}

func (e *PersistError) Unwrap() error { return e.Err }

// FailureMessage turns an append error into something the user can act on.
func FailureMessage(err error) string {
	var credErr *sheets.CredentialsError
	var connErr *sheets.SheetConnectionError
	var dataErr *sheets.DataValidationError

	switch {
	case errors.As(err, &credErr):
		return fmt.Sprintf("Google credentials problem: %v. Check sheets.credentials_file in your config.", err)
	case errors.As(err, &connErr):
		return fmt.Sprintf("Could not reach the tracker sheet: %v. Check the spreadsheet name and that it is shared with the service account.", err)
	case errors.As(err, &dataErr):
		return fmt.Sprintf("Job details could not be saved: %v.", err)
	default:
		return fmt.Sprintf("Could not save the job: %v.", err)
	}
}
