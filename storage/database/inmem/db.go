package inmemdb

import (
	"sync"

	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

type (
	recordTable struct {
		rows  map[string]records.Record // id -> record
		order []string                  // insertion order
	}

	// DB is a process-local store, safe for concurrent use.
	DB struct {
		mutex   sync.RWMutex
		records map[string]*recordTable // kind -> table
		sheets  map[gradebook.SheetKey]gradebook.Sheet
	}
)

func Open() *DB {
	return &DB{
		records: make(map[string]*recordTable),
		sheets:  make(map[gradebook.SheetKey]gradebook.Sheet),
	}
}

// table returns the table of a kind, creating it. Callers must hold the write lock.
func (db *DB) table(kind string) *recordTable {
	tbl, ok := db.records[kind]
	if !ok {
		tbl = &recordTable{rows: make(map[string]records.Record)}
		db.records[kind] = tbl
	}
	return tbl
}

// Reset drops every row.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.records = make(map[string]*recordTable)
	db.sheets = make(map[gradebook.SheetKey]gradebook.Sheet)
}
