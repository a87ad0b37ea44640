package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	MetaBucket  = []byte("meta")  // Format version, creation time
	FilesBucket = []byte("files") // path -> FileEntry for currently encrypted files
	RunsBucket  = []byte("runs")  // run ID -> RunRecord
)

// Meta keys
var (
	MetaVersion = []byte("version")
	MetaCreated = []byte("created")
)

// FileEntry records one currently-encrypted file.
type FileEntry struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"` // Plaintext size at encryption time
	Algorithm   string    `json:"algorithm"`
	RunID       string    `json:"runId"`
	EncryptedAt time.Time `json:"encryptedAt"`
}

// RunRecord summarizes one lock or unlock run.
type RunRecord struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

// Manifest provides BBolt-based state tracking for lockdir. It is
// advisory: the engine stays correct without it, but it powers the
// status command and the double-encryption guard.
type Manifest struct {
	db *bolt.DB
}

// Open opens or creates a manifest database, creating the bucket
// structure on first use.
func Open(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{MetaBucket, FilesBucket, RunsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		meta := tx.Bucket(MetaBucket)
		if meta.Get(MetaVersion) == nil {
			if err := meta.Put(MetaVersion, []byte("1")); err != nil {
				return err
			}
			created, _ := time.Now().MarshalBinary()
			if err := meta.Put(MetaCreated, created); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Manifest{db: db}, nil
}

// Close closes the database
func (m *Manifest) Close() error {
	return m.db.Close()
}

// BeginRun creates a run record and returns its ID.
func (m *Manifest) BeginRun(op string) (string, error) {
	record := RunRecord{
		ID:      uuid.NewString(),
		Op:      op,
		Started: time.Now(),
	}
	if err := m.putRun(record); err != nil {
		return "", err
	}
	return record.ID, nil
}

// FinishRun stores the final counts for a run.
func (m *Manifest) FinishRun(runID string, processed, skipped, failed int) error {
	record, err := m.GetRun(runID)
	if err != nil {
		return err
	}
	record.Finished = time.Now()
	record.Processed = processed
	record.Skipped = skipped
	record.Failed = failed
	return m.putRun(*record)
}

func (m *Manifest) putRun(record RunRecord) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return tx.Bucket(RunsBucket).Put([]byte(record.ID), data)
	})
}

// GetRun retrieves a run record by ID.
func (m *Manifest) GetRun(runID string) (*RunRecord, error) {
	var record *RunRecord
	err := m.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(RunsBucket).Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("run %s not found", runID)
		}
		record = &RunRecord{}
		return json.Unmarshal(data, record)
	})
	return record, err
}

// Runs returns all run records.
func (m *Manifest) Runs() ([]RunRecord, error) {
	var records []RunRecord
	err := m.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(RunsBucket).ForEach(func(k, v []byte) error {
			var record RunRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}

// MarkEncrypted records a file as currently encrypted.
func (m *Manifest) MarkEncrypted(entry FileEntry) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return tx.Bucket(FilesBucket).Put([]byte(entry.Path), data)
	})
}

// ClearEncrypted removes a file's encrypted record after decryption.
func (m *Manifest) ClearEncrypted(path string) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(FilesBucket).Delete([]byte(path))
	})
}

// IsEncrypted reports whether a file is recorded as encrypted.
func (m *Manifest) IsEncrypted(path string) (bool, error) {
	var found bool
	err := m.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(FilesBucket).Get([]byte(path)) != nil
		return nil
	})
	return found, err
}

// GetEntry returns the record for one encrypted file, or nil if absent.
func (m *Manifest) GetEntry(path string) (*FileEntry, error) {
	var entry *FileEntry
	err := m.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(FilesBucket).Get([]byte(path))
		if data == nil {
			return nil
		}
		entry = &FileEntry{}
		return json.Unmarshal(data, entry)
	})
	return entry, err
}

// EncryptedFiles returns all files currently recorded as encrypted.
func (m *Manifest) EncryptedFiles() ([]FileEntry, error) {
	var entries []FileEntry
	err := m.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(FilesBucket).ForEach(func(k, v []byte) error {
			var entry FileEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}
