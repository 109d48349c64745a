package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

type GoogleConfig struct {
	CredentialsFile string

	// Options apply to both services; SheetsOptions and DriveOptions to one.
	Options       []option.ClientOption
	SheetsOptions []option.ClientOption
	DriveOptions  []option.ClientOption
}

// GoogleOpener authenticates with a service account on first use and keeps
// the clients for the rest of the process.
type GoogleOpener struct {
	cfg GoogleConfig

	mu     sync.Mutex
	sheets *gsheets.Service
	drive  *drive.Service
}

func NewGoogleOpener(cfg GoogleConfig) *GoogleOpener {
	return &GoogleOpener{cfg: cfg}
}

func (g *GoogleOpener) services(ctx context.Context) (*gsheets.Service, *drive.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sheets != nil && g.drive != nil {
		return g.sheets, g.drive, nil
	}

	path := g.cfg.CredentialsFile
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, &CredentialsError{Path: path, Err: errors.New("credentials file not found")}
		}
		return nil, nil, &CredentialsError{Path: path, Err: err}
	}

	creds, err := google.CredentialsFromJSON(ctx, b, gsheets.SpreadsheetsScope, drive.DriveScope)
	if err != nil {
		return nil, nil, &CredentialsError{Path: path, Err: fmt.Errorf("invalid credentials file: %w", err)}
	}

	base := []option.ClientOption{option.WithCredentials(creds)}

	ss, err := gsheets.NewService(ctx, slices.Concat(base, g.cfg.Options, g.cfg.SheetsOptions)...)
	if err != nil {
		return nil, nil, &SheetConnectionError{Msg: "failed to initialize sheets client", Err: err}
	}
	ds, err := drive.NewService(ctx, slices.Concat(base, g.cfg.Options, g.cfg.DriveOptions)...)
	if err != nil {
		return nil, nil, &SheetConnectionError{Msg: "failed to initialize drive client", Err: err}
	}

	g.sheets, g.drive = ss, ds
	return ss, ds, nil
}

// Open finds spreadsheet by name among the files shared with the service
// account and returns the named tab, or the first tab when worksheet is empty.
func (g *GoogleOpener) Open(ctx context.Context, spreadsheet, worksheet string) (Worksheet, error) {
	ss, ds, err := g.services(ctx)
	if err != nil {
		return nil, err
	}

	connErr := func(msg string, err error) error {
		if isAuthFailure(err) {
			return &CredentialsError{Path: g.cfg.CredentialsFile, Err: err}
		}
		return &SheetConnectionError{Spreadsheet: spreadsheet, Worksheet: worksheet, Msg: msg, Err: err}
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(spreadsheet), spreadsheetMimeType)
	list, err := ds.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, connErr("failed to look up spreadsheet", err)
	}
	if len(list.Files) == 0 {
		return nil, &SheetConnectionError{Spreadsheet: spreadsheet, Msg: "spreadsheet not found"}
	}
	id := list.Files[0].Id

	doc, err := ss.Spreadsheets.Get(id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, connErr("failed to get worksheet", err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return nil, &SheetConnectionError{Spreadsheet: spreadsheet, Msg: "spreadsheet has no tabs"}
	}

	title := ""
	if worksheet == "" {
		title = doc.Sheets[0].Properties.Title
	} else {
		for _, sh := range doc.Sheets {
			if sh.Properties != nil && sh.Properties.Title == worksheet {
				title = sh.Properties.Title
				break
			}
		}
		if title == "" {
			return nil, &SheetConnectionError{Spreadsheet: spreadsheet, Worksheet: worksheet, Msg: "worksheet not found"}
		}
	}

	return &googleWorksheet{
		svc:         ss,
		id:          id,
		title:       title,
		spreadsheet: spreadsheet,
		credsPath:   g.cfg.CredentialsFile,
	}, nil
}

type googleWorksheet struct {
	svc         *gsheets.Service
	id          string
	title       string
	spreadsheet string
	credsPath   string
}

func (w *googleWorksheet) AppendRow(ctx context.Context, row []any) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err := w.svc.Spreadsheets.Values.Append(w.id, a1Range(w.title), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err == nil {
		return nil
	}
	if isAuthFailure(err) {
		return &CredentialsError{Path: w.credsPath, Err: err}
	}
	return &SheetConnectionError{Spreadsheet: w.spreadsheet, Worksheet: w.title, Msg: "failed to append row", Err: err}
}

func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!A1"
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// isAuthFailure reports whether err came from the token exchange, i.e. the
// key was rejected rather than the sheet.
func isAuthFailure(err error) bool {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return true
	}
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == 401
}
