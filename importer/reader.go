package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// RawRow maps header names to the raw text of one input line.
type RawRow map[string]string

// CSVReader yields one RawRow per data line of a delimited file. It is not
// restartable: open the file again to read it again.
//
// Every physical line is split on its own, so a quoted field cannot span
// lines and a stray quote damages only the line it sits on.
type CSVReader struct {
	path    string
	file    *os.File
	buf     *bufio.Reader
	headers []string
	line    int
	raw     string
}

// OpenCSV opens path and consumes its header line.
func OpenCSV(path string) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	c := &CSVReader{path: path, file: f, buf: bufio.NewReader(f)}
	text, err := c.readLine()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("reading header of %s: file is empty", path)
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	header, err := splitLine(strings.TrimPrefix(text, "\ufeff"))
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("reading header of %s: header line is blank", path)
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	c.headers = make([]string, len(header))
	for i, h := range header {
		c.headers[i] = strings.TrimSpace(h)
	}
	return c, nil
}

// Headers returns the cleaned header names.
func (c *CSVReader) Headers() []string { return c.headers }

// Line returns the 1-based line number of the last row returned by Next.
func (c *CSVReader) Line() int { return c.line }

// Raw returns the text of the last row returned by Next, as it appears in
// the file.
func (c *CSVReader) Raw() string { return c.raw }

// Next returns the next row, or io.EOF at the end of the file. A line with
// the wrong number of fields still yields a row: missing columns are absent
// and extra fields are dropped. A line the CSV parser cannot split yields an
// empty row so normalization rejects it; only I/O failures are returned as
// errors.
func (c *CSVReader) Next() (RawRow, error) {
	for {
		text, err := c.readLine()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s after line %d: %w", c.path, c.line, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		c.raw = text

		record, err := splitLine(text)
		if err != nil {
			log.Printf("%s: malformed line %d: %v", c.path, c.line, err)
			return RawRow{}, nil
		}

		row := make(RawRow, len(c.headers))
		for i, h := range c.headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		return row, nil
	}
}

// readLine returns the next physical line without its terminator.
func (c *CSVReader) readLine() (string, error) {
	text, err := c.buf.ReadString('\n')
	if err == io.EOF && text != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	c.line++
	return strings.TrimRight(text, "\r\n"), nil
}

// splitLine parses one line as a single CSV record.
func splitLine(text string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr.Err
		}
		return nil, err
	}
	return record, nil
}

// Close releases the file handle.
func (c *CSVReader) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
