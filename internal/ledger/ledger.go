// Package ledger records which files a run has already printed so that a
// crash between printing and archiving never causes a reprint.
package ledger

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"
)

var jobsBucket = []byte("PrintJobs")

type State string

const (
	StateUnknown  State = ""
	StatePrinted  State = "printed"
	StateArchived State = "archived"
)

// Entry is the stored record for one file version.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Path        string    `json:"path"`
	RunID       string    `json:"run_id"`
	State       State     `json:"state"`
	PrintedAt   time.Time `json:"printed_at"`
	ArchivedAt  time.Time `json:"archived_at,omitempty"`
}

type Ledger struct {
	db *bbolt.DB
}

// Open opens or creates the ledger database at path. A second process
// holding the file makes Open fail after a short timeout.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open ledger %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(jobsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create ledger bucket")
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func key(fingerprint, rel string) []byte {
	return []byte(fingerprint + "\x00" + filepath.ToSlash(rel))
}

// Lookup returns the entry for a file version, or ok == false.
func (l *Ledger) Lookup(fingerprint, rel string) (Entry, bool, error) {
	var (
		entry Entry
		found bool
	)
	err := l.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(jobsBucket).Get(key(fingerprint, rel))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return Entry{}, false, errors.Wrapf(err, "reading ledger entry for %s", rel)
	}
	return entry, found, nil
}

// State is Lookup reduced to the recorded state.
func (l *Ledger) State(fingerprint, rel string) (State, error) {
	entry, ok, err := l.Lookup(fingerprint, rel)
	if err != nil || !ok {
		return StateUnknown, err
	}
	return entry.State, nil
}

func (l *Ledger) MarkPrinted(runID, fingerprint, rel string, at time.Time) error {
	return l.put(Entry{
		Fingerprint: fingerprint,
		Path:        filepath.ToSlash(rel),
		RunID:       runID,
		State:       StatePrinted,
		PrintedAt:   at,
	})
}

// MarkArchived completes an entry. A file archived without a prior print
// record still gets an entry.
func (l *Ledger) MarkArchived(runID, fingerprint, rel string, at time.Time) error {
	entry, ok, err := l.Lookup(fingerprint, rel)
	if err != nil {
		return err
	}
	if !ok {
		entry = Entry{
			Fingerprint: fingerprint,
			Path:        filepath.ToSlash(rel),
			PrintedAt:   at,
		}
	}
	entry.RunID = runID
	entry.State = StateArchived
	entry.ArchivedAt = at
	return l.put(entry)
}

// Entries returns every record in key order.
func (l *Ledger) Entries() ([]Entry, error) {
	var entries []Entry
	err := l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(jobsBucket).ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, errors.Wrap(err, "reading ledger")
}

func (l *Ledger) put(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal ledger entry")
	}
	err = l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(jobsBucket).Put(key(entry.Fingerprint, entry.Path), data)
	})
	return errors.Wrapf(err, "writing ledger entry for %s", entry.Path)
}
