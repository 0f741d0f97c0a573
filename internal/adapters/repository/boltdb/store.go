// Package boltdb はモデル全体を BoltDB のバケットへ保存する StateStore です。
//
// バケット persons と jobs には挿入順の連番をキーとして JSON を、
// バケット employment には job id をキーとして person id を保存します。
package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/employment"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/ledger"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

var (
	personsBucket    = []byte("persons")
	jobsBucket       = []byte("jobs")
	employmentBucket = []byte("employment")
)

// Store は BoltDB ファイルをラップします。
type Store struct {
	db *bolt.DB
}

var _ ledger.StateStore = (*Store)(nil)

// Open は path の BoltDB を開き (なければ作成し)、バケットを用意します。
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{personsBucket, jobsBucket, employmentBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltdb: create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close はデータベースファイルのロックを解放します。
func (s *Store) Close() error {
	return s.db.Close()
}

// Load はすべてのバケットから状態を読み込みます。
func (s *Store) Load(ctx context.Context) (ledger.State, error) {
	if err := ctx.Err(); err != nil {
		return ledger.State{}, err
	}

	state := ledger.State{Employment: map[string]string{}}
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := forEachRecord(tx, personsBucket, func(v []byte) error {
			var p person.Person
			if err := json.Unmarshal(v, &p); err != nil {
				return invalid("persons", err)
			}
			state.Persons = append(state.Persons, p)
			return nil
		}); err != nil {
			return err
		}

		if err := forEachRecord(tx, jobsBucket, func(v []byte) error {
			var j job.Job
			if err := json.Unmarshal(v, &j); err != nil {
				return invalid("jobs", err)
			}
			state.Jobs = append(state.Jobs, j)
			return nil
		}); err != nil {
			return err
		}

		b := tx.Bucket(employmentBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			state.Employment[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return ledger.State{}, err
	}

	if err := employment.Validate(state.Employment); err != nil {
		return ledger.State{}, err
	}
	return state, nil
}

// Save は 1 つの書き込みトランザクションでバケットの内容を置き換えます。
func (s *Store) Save(ctx context.Context, state ledger.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		persons, err := recreateBucket(tx, personsBucket)
		if err != nil {
			return err
		}
		for _, p := range state.Persons {
			if err := putRecord(persons, p); err != nil {
				return fmt.Errorf("boltdb: put person %s: %w", p.ID(), err)
			}
		}

		jobs, err := recreateBucket(tx, jobsBucket)
		if err != nil {
			return err
		}
		for _, j := range state.Jobs {
			if err := putRecord(jobs, j); err != nil {
				return fmt.Errorf("boltdb: put job %s: %w", j.ID(), err)
			}
		}

		assignments, err := recreateBucket(tx, employmentBucket)
		if err != nil {
			return err
		}
		for jobID, personID := range state.Employment {
			if err := assignments.Put([]byte(jobID), []byte(personID)); err != nil {
				return fmt.Errorf("boltdb: put employment %s: %w", jobID, err)
			}
		}
		return nil
	})
}

func recreateBucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return nil, fmt.Errorf("boltdb: delete bucket %s: %w", name, err)
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("boltdb: create bucket %s: %w", name, err)
	}
	return b, nil
}

// putRecord は連番キーで値を保存します。連番はバケット作成ごとに 1 から始まるため、読み込み順が保存順と一致します。
func putRecord(b *bolt.Bucket, v any) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return b.Put(key, data)
}

func forEachRecord(tx *bolt.Tx, name []byte, fn func(v []byte) error) error {
	b := tx.Bucket(name)
	if b == nil {
		return nil
	}
	return b.ForEach(func(_, v []byte) error {
		return fn(v)
	})
}

func invalid(field string, err error) error {
	if errors.Is(err, stored.ErrInvalidValue) {
		return err
	}
	return stored.Invalid("state", field, err)
}
