package dirq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
)

// TypedQueue stores multi-field records, one file per schema field,
// under an element directory. It is the direct Go analogue of the
// python original's "dirq" flavor (spec.md §4.4).
type TypedQueue struct {
	base   *baseQueue
	schema *Schema
}

// NewTypedQueue opens (creating if necessary) a typed queue rooted at
// root, validating every Add against schema.
func NewTypedQueue(root, schemaString string, opts Options) (*TypedQueue, error) {
	schema, err := ParseSchema(schemaString)
	if err != nil {
		return nil, err
	}
	q := &TypedQueue{schema: schema}
	base, err := newBaseQueue(root, opts, q)
	if err != nil {
		return nil, err
	}
	q.base = base
	return q, nil
}

// Schema returns the queue's parsed schema.
func (q *TypedQueue) Schema() *Schema { return q.schema }

// Add validates payload against the schema and commits it as a new
// element directory. Returns the element identifier. payload must be
// a Record; this satisfies the Queue interface's any-typed signature
// while AddRecord gives typed callers a concrete-typed entry point.
func (q *TypedQueue) Add(ctx context.Context, payload any) (string, error) {
	record, ok := payload.(Record)
	if !ok {
		return "", fmt.Errorf("%w: typed queue requires a Record payload, got %T", dirqerrors.ErrInvalidConfiguration, payload)
	}
	return q.AddRecord(ctx, record)
}

// AddRecord is the concrete-typed form of Add, convenient for callers
// that already hold a Record and don't want to type-assert through
// the Queue interface.
func (q *TypedQueue) AddRecord(ctx context.Context, record Record) (string, error) {
	if err := q.schema.Validate(record); err != nil {
		return "", err
	}
	return q.base.add(ctx, record)
}

// Count returns the number of visible elements.
func (q *TypedQueue) Count(ctx context.Context) (int, error) { return q.base.count(ctx) }

// Lock attempts to acquire the element's lock (a mkdir-based marker).
func (q *TypedQueue) Lock(ctx context.Context, id string, permissive bool) (bool, error) {
	return q.base.lock(ctx, id, permissive)
}

// Unlock releases a previously acquired lock.
func (q *TypedQueue) Unlock(ctx context.Context, id string, permissive bool) (bool, error) {
	return q.base.unlock(ctx, id, permissive)
}

// Get reads back the record stored at id, satisfying the Queue
// interface's any-typed signature. GetRecord gives typed callers a
// concrete-typed entry point.
func (q *TypedQueue) Get(ctx context.Context, id string) (any, error) {
	return q.base.get(ctx, id)
}

// GetRecord is the concrete-typed form of Get. The caller must hold
// the lock; dirq does not enforce this (spec.md §4.3).
func (q *TypedQueue) GetRecord(ctx context.Context, id string) (Record, error) {
	payload, err := q.base.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return payload.(Record), nil
}

// Remove deletes the locked element.
func (q *TypedQueue) Remove(ctx context.Context, id string) error { return q.base.remove(ctx, id) }

// Touch bumps the lock marker's mtime.
func (q *TypedQueue) Touch(ctx context.Context, id string) error { return q.base.touch(ctx, id) }

// First begins a fresh iteration pass.
func (q *TypedQueue) First(ctx context.Context) (string, error) { return q.base.first(ctx) }

// Next continues an iteration pass started by First.
func (q *TypedQueue) Next(ctx context.Context) (string, error) { return q.base.next(ctx) }

// Purge reclaims stale staging files and lock markers.
func (q *TypedQueue) Purge(ctx context.Context, maxTemp, maxLock time.Duration) (PurgeStats, error) {
	return q.base.purge(ctx, maxTemp, maxLock)
}

// --- elementOps ---

func (q *TypedQueue) writeStaging(stagingPath string, payload any) error {
	record, ok := payload.(Record)
	if !ok {
		return fmt.Errorf("%w: typed queue requires a Record payload, got %T", dirqerrors.ErrInvalidConfiguration, payload)
	}
	if err := mkdirPlain(stagingPath, os.FileMode(q.base.opts.DirPerm), q.base.opts.Umask); err != nil {
		return err
	}
	for _, f := range q.schema.fields {
		v, present := record[f.Name]
		if !present {
			continue
		}
		if err := writeFieldFile(stagingPath, f, v, q.base.opts); err != nil {
			return err
		}
	}
	return nil
}

func writeFieldFile(dir string, f Field, v Value, opts Options) error {
	finalName := filepath.Join(dir, f.fileName())
	tempName := filepath.Join(dir, "."+f.fileName()+".tmp")

	data, err := encodeFieldValue(f, v)
	if err != nil {
		return err
	}
	if err := writeFilePlain(tempName, data, os.FileMode(opts.FilePerm), opts.Umask); err != nil {
		return err
	}
	return renameAtomic(tempName, finalName)
}

func encodeFieldValue(f Field, v Value) ([]byte, error) {
	switch f.Kind {
	case FieldBinary:
		return v.Bin, nil
	case FieldTable:
		var b strings.Builder
		for _, row := range v.Table {
			b.WriteString(row)
			b.WriteByte(0)
		}
		return []byte(b.String()), nil
	default:
		return []byte(v.Str), nil
	}
}

func (q *TypedQueue) commit(stagingPath, finalPath string) error {
	return renameAtomic(stagingPath, finalPath)
}

func (q *TypedQueue) readPayload(finalPath string) (any, error) {
	if _, err := os.Stat(finalPath); err != nil {
		return nil, err
	}
	record := make(Record, len(q.schema.fields))
	for _, f := range q.schema.fields {
		path := filepath.Join(finalPath, f.fileName())
		data, err := os.ReadFile(path)
		if err != nil {
			if isNotExist(err) {
				if f.Optional {
					continue
				}
				return nil, fmt.Errorf("%w: field %q missing from %s", dirqerrors.ErrMissingElement, f.Name, finalPath)
			}
			return nil, err
		}
		record[f.Name] = decodeFieldValue(f, data)
	}
	return record, nil
}

func decodeFieldValue(f Field, data []byte) Value {
	switch f.Kind {
	case FieldBinary:
		return BinaryValue(data)
	case FieldTable:
		raw := strings.Split(string(data), "\x00")
		if len(raw) > 0 && raw[len(raw)-1] == "" {
			raw = raw[:len(raw)-1]
		}
		return TableValue(raw)
	default:
		return StringValue(string(data))
	}
}

func (q *TypedQueue) removePayload(finalPath string) error {
	return os.RemoveAll(finalPath)
}

func (q *TypedQueue) payloadExists(finalPath string) (bool, error) {
	_, err := os.Stat(finalPath)
	if err == nil {
		return true, nil
	}
	if isNotExist(err) {
		return false, nil
	}
	return false, err
}

func (q *TypedQueue) acquireLock(lockPath string, dirPerm, _ uint32, umask int) (bool, error) {
	err := mkdirExclusive(lockPath, os.FileMode(dirPerm), umask)
	if err == nil {
		return true, nil
	}
	if isExist(err) {
		return false, nil
	}
	return false, err
}

func (q *TypedQueue) releaseLock(lockPath string) error {
	return os.Remove(lockPath)
}

var _ Queue = (*TypedQueue)(nil)
