// Package source reads candidate job URLs from import files.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoURLs = errors.New("no job URLs found in the file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadURLs returns the URLs in path in file order. A .csv file contributes the
// first column of every row; anything else is read as one URL per line.
// Blank entries are skipped and duplicates kept.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if head, err := r.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = r.Discard(len(utf8BOM))
	}

	var urls []string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		urls, err = readCSV(r)
	} else {
		urls, err = readLines(r)
	}
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	return urls, nil
}

func readCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var urls []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return urls, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		if u := strings.TrimSpace(rec[0]); u != "" {
			urls = append(urls, u)
		}
	}
}

func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var urls []string
	for sc.Scan() {
		if u := strings.TrimSpace(sc.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}
