// Package inmemdb implements the repositories in memory. Used by tests & when `database.inMemory` is set.
package inmemdb

import (
	"sort"
	"sync"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/user"
)

type (
	DB struct {
		user            *table[user.User]
		university      *table[catalog.University]
		major           *table[catalog.Major]
		program         *table[catalog.Program]
		scholarship     *table[catalog.Scholarship]
		admissionMethod *table[catalog.AdmissionMethod]
		news            *table[catalog.News]
	}

	// table keeps rows by ID, remembering insertion order.
	table[E any] struct {
		sync.RWMutex
		rows  map[string]E
		order map[string]int
		seq   int
	}
)

func Open() *DB {
	return &DB{
		user:            newTable[user.User](),
		university:      newTable[catalog.University](),
		major:           newTable[catalog.Major](),
		program:         newTable[catalog.Program](),
		scholarship:     newTable[catalog.Scholarship](),
		admissionMethod: newTable[catalog.AdmissionMethod](),
		news:            newTable[catalog.News](),
	}
}

// deleteUniversityRefs deletes the catalog records owned by the university and
// detaches its users.
func (db *DB) deleteUniversityRefs(universityID string) {
	deleteOwned(db.major, universityID)
	deleteOwned(db.program, universityID)
	deleteOwned(db.scholarship, universityID)
	deleteOwned(db.admissionMethod, universityID)
	deleteOwned(db.news, universityID)

	db.user.Lock()
	defer db.user.Unlock()
	for id, usr := range db.user.rows {
		if usr.UniversityID.Valid && usr.UniversityID.String == universityID {
			usr.UniversityID = null.String{}
			db.user.rows[id] = usr
		}
	}
}

func deleteOwned[E catalog.Entity[E]](t *table[E], universityID string) {
	t.Lock()
	defer t.Unlock()
	for id, row := range t.rows {
		if row.UniversityRef() == universityID {
			t.remove(id)
		}
	}
}

func newTable[E any]() *table[E] {
	return &table[E]{rows: make(map[string]E), order: make(map[string]int)}
}

// put must be called with the write lock held.
func (t *table[E]) put(id string, row E) {
	if _, ok := t.order[id]; !ok {
		t.seq++
		t.order[id] = t.seq
	}
	t.rows[id] = row
}

// remove must be called with the write lock held.
func (t *table[E]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	delete(t.order, id)
	return true
}

// all returns rows in insertion order; must be called with a lock held.
func (t *table[E]) all() []E {
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return t.order[ids[i]] < t.order[ids[j]] })

	rows := make([]E, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, t.rows[id])
	}
	return rows
}
