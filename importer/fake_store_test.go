package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/nonsonwune/lmsconnector/models"
	"github.com/nonsonwune/lmsconnector/store"
)

var insertHeader = regexp.MustCompile(`^INSERT INTO "([^"]+)" \(([^)]*)\) VALUES `)

// fakeTable keeps rows in insertion order and enforces the natural key.
type fakeTable struct {
	rows [][]string
	keys map[string]bool
}

// fakeStore is an in-memory stand-in for PostgreSQL that honours
// ON CONFLICT DO NOTHING on each table's natural key.
type fakeStore struct {
	mu       sync.Mutex
	tables   map[string]*fakeTable
	acquired int
	released int
	execs    int

	// failExecAt makes the nth Exec (1-based) fail.
	failExecAt int
	failCopy   error
	acquireErr error
	// onExec runs before every Exec; tests use it to cancel mid-load.
	onExec func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: make(map[string]*fakeTable)}
}

func (s *fakeStore) Acquire(ctx context.Context) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	s.acquired++
	return &fakeSession{store: s}, nil
}

func (s *fakeStore) count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[table]; ok {
		return len(t.rows)
	}
	return 0
}

func (s *fakeStore) rows(table string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[table]; ok {
		return t.rows
	}
	return nil
}

func (s *fakeStore) open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired - s.released
}

// insert adds rows that do not collide and returns how many were added.
// Callers hold mu.
func (s *fakeStore) insert(table string, columns []string, rows [][]string) (int64, error) {
	schema, ok := models.LookupTable(table)
	if !ok {
		return 0, fmt.Errorf("relation %q does not exist", table)
	}
	if strings.Join(columns, ",") != strings.Join(schema.Columns, ",") {
		return 0, fmt.Errorf("column list %v does not match %s", columns, table)
	}
	t, ok := s.tables[table]
	if !ok {
		t = &fakeTable{keys: make(map[string]bool)}
		s.tables[table] = t
	}
	var n int64
	for _, row := range rows {
		key := make([]string, 0, len(schema.Key))
		for _, i := range schema.KeyIndexes() {
			key = append(key, row[i])
		}
		k := strings.Join(key, KeySeparator)
		if t.keys[k] {
			continue
		}
		t.keys[k] = true
		t.rows = append(t.rows, row)
		n++
	}
	return n, nil
}

type fakeSession struct {
	store    *fakeStore
	released bool
}

func (f *fakeSession) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if f.store.onExec != nil {
		f.store.onExec()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.execs++
	if f.store.failExecAt == f.store.execs {
		return 0, errors.New("connection reset by peer")
	}

	m := insertHeader.FindStringSubmatch(query)
	if m == nil {
		return 0, fmt.Errorf("unexpected statement: %s", query)
	}
	columns := strings.Split(m[2], ", ")
	for i, c := range columns {
		columns[i] = strings.Trim(c, `"`)
	}
	if len(args)%len(columns) != 0 {
		return 0, fmt.Errorf("%d args for %d columns", len(args), len(columns))
	}
	if want := strings.Count(query, "$"); want != len(args) {
		return 0, fmt.Errorf("statement has %d params, got %d args", want, len(args))
	}

	var rows [][]string
	for off := 0; off < len(args); off += len(columns) {
		row := make([]string, len(columns))
		for i, v := range args[off : off+len(columns)] {
			s, err := formatValue(v)
			if err != nil {
				return 0, err
			}
			row[i] = s
		}
		rows = append(rows, row)
	}
	return f.store.insert(m[1], columns, rows)
}

func (f *fakeSession) CopyFrom(ctx context.Context, table string, columns []string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)
	rows, err := cr.ReadAll()
	if err != nil {
		return 0, err
	}

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.failCopy != nil {
		return 0, f.store.failCopy
	}
	return f.store.insert(table, columns, rows)
}

func (f *fakeSession) Release() {
	if f.released {
		return
	}
	f.released = true
	f.store.mu.Lock()
	f.store.released++
	f.store.mu.Unlock()
}
