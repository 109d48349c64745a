package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"jobtracker/internal/domain"
	"jobtracker/internal/events"
	"jobtracker/internal/intake"
	"jobtracker/internal/logger"
	"jobtracker/internal/sheets"
	"jobtracker/internal/store"
)

type fakeIntaker struct {
	singles []string
	bulks   []string
	tags    []string
	bulkErr error
	added   int
}

func (f *fakeIntaker) AddSingle(_ context.Context, url, tag string) (bool, string) {
	f.singles = append(f.singles, url)
	f.tags = append(f.tags, tag)
	if url == "" {
		return false, intake.MsgNoURL
	}
	return true, "Job 'SRE' at 'Acme' added to your tracker!"
}

func (f *fakeIntaker) AddBulk(_ context.Context, path, tag string) (int, error) {
	f.bulks = append(f.bulks, path)
	f.tags = append(f.tags, tag)
	return f.added, f.bulkErr
}

func TestMenu(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		bulkErr  error
		want     []string
		wantTags []string
	}{
		{
			name:     "add then exit",
			input:    "1\nhttps://www.linkedin.com/jobs/view/1/\n3\n",
			want:     []string{"Welcome to LinkedIn Job Tracker!", "added to your tracker!", "Goodbye!"},
			wantTags: []string{domain.SourceScript},
		},
		{
			name:     "import",
			input:    "2\njobs.csv\n3\n",
			want:     []string{"Imported 4 jobs from the file."},
			wantTags: []string{domain.SourceFileImport},
		},
		{
			name:     "import error",
			input:    "2\nmissing.txt\n3\n",
			bulkErr:  intake.ErrFileNotFound,
			want:     []string{"File not found."},
			wantTags: []string{domain.SourceFileImport},
		},
		{
			name:  "bad choice",
			input: "9\n3\n",
			want:  []string{"Please enter 1, 2, or 3."},
		},
		{
			name:  "end of input",
			input: "",
			want:  []string{"Enter your choice (1, 2, or 3): "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeIntaker{added: 4, bulkErr: tt.bulkErr}
			var out bytes.Buffer
			if err := runMenu(context.Background(), strings.NewReader(tt.input), &out, f); err != nil {
				t.Fatalf("runMenu: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out.String())
				}
			}
			if strings.Join(f.tags, ",") != strings.Join(tt.wantTags, ",") {
				t.Errorf("tags = %v, want %v", f.tags, tt.wantTags)
			}
		})
	}
}

func TestMenuStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() { done <- runMenu(ctx, pr, io.Discard, &fakeIntaker{}) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("menu did not stop")
	}
}

func TestBulkMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{intake.ErrNoFilePath, "No file path entered."},
		{intake.ErrFileNotFound, "File not found."},
		{fmt.Errorf("wrapped: %w", intake.ErrNoURLs), "No job URLs found in the file."},
		{errors.New("error reading file: bad utf-8"), "Error reading file: bad utf-8"},
	}
	for _, tt := range tests {
		if got := bulkMessage(tt.err); got != tt.want {
			t.Errorf("bulkMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	persist := &intake.PersistError{Added: 2, Err: &sheets.SheetConnectionError{Spreadsheet: "T", Msg: "not found"}}
	if got := bulkMessage(persist); !strings.Contains(got, "2 jobs were added") {
		t.Errorf("persist message = %q", got)
	}
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	if err := printHistory(&out, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No intake history") {
		t.Fatalf("empty output = %q", out.String())
	}

	out.Reset()
	entries := []store.Entry{
		{CreatedAt: time.Now(), URL: "https://a", Outcome: store.OutcomeAdded, Title: "SRE", Company: "Acme", Source: domain.SourceScript},
		{CreatedAt: time.Now(), URL: "https://b", Outcome: store.OutcomeUnresolved},
		{CreatedAt: time.Now(), URL: "https://c", Outcome: store.OutcomeFailed, Title: "Dev", Detail: "sheet down"},
	}
	if err := printHistory(&out, entries); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, w := range []string{"OUTCOME", "SRE", "Acme", "unresolved", "sheet down", "https://c"} {
		if !strings.Contains(s, w) {
			t.Errorf("missing %q in:\n%s", w, s)
		}
	}
}

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("  me@example.com \nlast"))
	got, err := readLine(in, &out, "LinkedIn email: ")
	if err != nil || got != "me@example.com" {
		t.Fatalf("got %q, %v", got, err)
	}
	if got, err := readLine(in, &out, "LinkedIn password: "); err != nil || got != "last" {
		t.Fatalf("unterminated last line: %q, %v", got, err)
	}
	if _, err := readLine(in, &out, "LinkedIn password: "); err == nil {
		t.Fatal("expected error at EOF")
	}
}

func TestReadSecretFallsBackWithoutTerminal(t *testing.T) {
	var out bytes.Buffer
	src := strings.NewReader(" s3cret \n")
	got, err := readSecret(bufio.NewReader(src), src, &out, "LinkedIn password: ")
	if err != nil || got != "s3cret" {
		t.Fatalf("got %q, %v", got, err)
	}
	if out.String() != "LinkedIn password: " {
		t.Fatalf("prompt = %q", out.String())
	}

	// A regular file is not a terminal either.
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString("\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := readSecret(bufio.NewReader(f), f, io.Discard, "IMAP password: "); err == nil || !strings.Contains(err.Error(), "cannot be empty") {
		t.Fatalf("err = %v", err)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"menu", "add", "import", "mail", "history", "creds", "config", "serve"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if c, _, err := root.Find([]string{"creds", "set"}); err != nil || c.Name() != "set" {
		t.Error("creds set not registered")
	}
}

func TestConfigValidateCommand(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--data-dir", dir, "config", "validate"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("validate defaults: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "is valid") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestImportChecksPathBeforeLogin(t *testing.T) {
	keyring.MockInit()
	for _, k := range []string{"LINKEDIN_USERNAME", "LINKEDIN_PASSWORD", "JOBTRACKER_LINKEDIN_USERNAME"} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing file", filepath.Join(dir, "nope.csv"), "File not found."},
		{"blank path", "  ", "No file path entered."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetOut(io.Discard)
			root.SetArgs([]string{"--data-dir", dir, "import", tt.path})
			err := root.ExecuteContext(context.Background())
			if err == nil || err.Error() != tt.want {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	hub := events.NewHub()
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	bg := func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, "127.0.0.1:0", hub, logger.Discard(), bg) }()
	sub := hub.Subscribe()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("background task not started")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
	if _, ok := <-sub; ok {
		t.Fatal("hub should be closed on shutdown")
	}
}

func TestJobAddedNotifier(t *testing.T) {
	hub := events.NewHub()
	ch := hub.Subscribe()
	ctx := logger.WithField(context.Background(), logger.FieldRequestID, "req-9")

	row := domain.NewTrackerRow(domain.JobPosting{Title: "SRE", Company: "Acme", Location: "Remote", URL: "u"},
		time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), domain.SourceGUI)
	jobAddedNotifier(hub)(ctx, row)

	var e events.Event
	if err := json.Unmarshal([]byte(<-ch), &e); err != nil {
		t.Fatal(err)
	}
	var data events.JobAdded
	_ = json.Unmarshal(e.Data, &data)
	if e.Type != events.TypeJobAdded || e.RequestID != "req-9" || data.Date != "2026-03-04" || data.Source != domain.SourceGUI {
		t.Fatalf("event = %+v data = %+v", e, data)
	}
}
