package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/veritas/core/session"
)

var nowFunc = time.Now // mockable

type (
	// DB keeps every namespace in process memory. Nothing survives a restart.
	DB struct {
		mutex  sync.RWMutex
		tables map[string]*table
	}

	table struct {
		items     map[string]string
		updatedAt time.Time
	}
)

func Open() *DB {
	return &DB{tables: make(map[string]*table)}
}

func (db *DB) For(namespace string) session.Storage {
	return &storage{db: db, namespace: namespace}
}

func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.tables = make(map[string]*table)
	return nil
}

// Sweep drops the namespaces untouched since before.
func (db *DB) Sweep(_ context.Context, before time.Time) (int64, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	var n int64
	for ns, tbl := range db.tables {
		if tbl.updatedAt.Before(before) {
			n += int64(len(tbl.items))
			delete(db.tables, ns)
		}
	}
	return n, nil
}

type storage struct {
	db        *DB
	namespace string
}

func (s *storage) Get(_ context.Context, key string) (string, bool, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	tbl, ok := s.db.tables[s.namespace]
	if !ok {
		return "", false, nil
	}
	value, ok := tbl.items[key]
	return value, ok, nil
}

func (s *storage) Replace(_ context.Context, items map[string]string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	tbl, ok := s.db.tables[s.namespace]
	if !ok {
		tbl = &table{items: make(map[string]string, len(items))}
		s.db.tables[s.namespace] = tbl
	}
	for k, v := range items {
		tbl.items[k] = v
	}
	tbl.updatedAt = nowFunc()
	return nil
}

func (s *storage) Remove(_ context.Context, keys ...string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	tbl, ok := s.db.tables[s.namespace]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(tbl.items, k)
	}
	if len(tbl.items) == 0 {
		delete(s.db.tables, s.namespace)
	} else {
		tbl.updatedAt = nowFunc()
	}
	return nil
}
