package sheets

import (
	"context"
	"errors"
	"testing"
)

type fakeWorksheet struct {
	rows [][]any
	err  error
}

func (w *fakeWorksheet) AppendRow(_ context.Context, row []any) error {
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, row)
	return nil
}

type fakeOpener struct {
	ws    *fakeWorksheet
	err   error
	opens int
	got   [2]string
}

func (o *fakeOpener) Open(_ context.Context, spreadsheet, worksheet string) (Worksheet, error) {
	o.opens++
	o.got = [2]string{spreadsheet, worksheet}
	if o.err != nil {
		return nil, o.err
	}
	return o.ws, nil
}

func TestValidateRow(t *testing.T) {
	type named string

	tests := []struct {
		name string
		row  []any
		ok   bool
	}{
		{"mixed scalars", []any{"a", 1, 2.5, true, int64(3), uint8(4), float32(1)}, true},
		{"named string kind", []any{named("x")}, true},
		{"empty", []any{}, false},
		{"nil row", nil, false},
		{"nested list", []any{"a", []any{"b"}}, false},
		{"map", []any{map[string]string{}}, false},
		{"nil element", []any{"a", nil}, false},
		{"struct", []any{struct{}{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRow(tt.row)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var dv *DataValidationError
			if !errors.As(err, &dv) {
				t.Fatalf("expected DataValidationError, got %v", err)
			}
		})
	}
}

func TestAppenderOpensOnce(t *testing.T) {
	ws := &fakeWorksheet{}
	op := &fakeOpener{ws: ws}
	a := NewAppender(op, "LinkedIn Job Tracker", "Automated Jobs")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := a.Append(ctx, []any{"row", i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if op.opens != 1 {
		t.Fatalf("opens = %d", op.opens)
	}
	if op.got != [2]string{"LinkedIn Job Tracker", "Automated Jobs"} {
		t.Fatalf("opened %v", op.got)
	}
	if len(ws.rows) != 3 {
		t.Fatalf("rows = %d", len(ws.rows))
	}
}

func TestAppenderValidationSkipsRemote(t *testing.T) {
	op := &fakeOpener{ws: &fakeWorksheet{}}
	a := NewAppender(op, "s", "")

	var dv *DataValidationError
	if err := a.Append(context.Background(), nil); !errors.As(err, &dv) {
		t.Fatalf("err = %v", err)
	}
	if op.opens != 0 {
		t.Fatalf("opener called %d times", op.opens)
	}
}

func TestAppenderErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("credentials error passes through", func(t *testing.T) {
		op := &fakeOpener{err: &CredentialsError{Path: "creds/sa.json"}}
		err := NewAppender(op, "s", "").Append(ctx, []any{"a"})
		var ce *CredentialsError
		if !errors.As(err, &ce) || ce.Path != "creds/sa.json" {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("failed open is retried", func(t *testing.T) {
		op := &fakeOpener{err: errors.New("boom")}
		a := NewAppender(op, "s", "tab")
		err := a.Append(ctx, []any{"a"})
		var sc *SheetConnectionError
		if !errors.As(err, &sc) || sc.Spreadsheet != "s" || sc.Worksheet != "tab" {
			t.Fatalf("err = %v", err)
		}

		op.err = nil
		op.ws = &fakeWorksheet{}
		if err := a.Append(ctx, []any{"a"}); err != nil {
			t.Fatalf("retry: %v", err)
		}
		if op.opens != 2 {
			t.Fatalf("opens = %d", op.opens)
		}
	})

	t.Run("append failure wraps and reopens", func(t *testing.T) {
		ws := &fakeWorksheet{err: errors.New("quota")}
		op := &fakeOpener{ws: ws}
		a := NewAppender(op, "s", "")

		err := a.Append(ctx, []any{"a"})
		var sc *SheetConnectionError
		if !errors.As(err, &sc) {
			t.Fatalf("err = %v", err)
		}
		ws.err = nil
		if err := a.Append(ctx, []any{"a"}); err != nil {
			t.Fatal(err)
		}
		if op.opens != 2 {
			t.Fatalf("opens = %d", op.opens)
		}
	})
}
