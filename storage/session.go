package storage

import (
	"encoding/binary"
	"time"

	"go.etcd.io/bbolt"
)

// SessionStorage is a fiber.Storage backed by bbolt. Each value is stored
// behind an 8-byte expiry (unix nanoseconds, 0 for none).
type SessionStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewSessionStorage opens the session database under dataDir
func NewSessionStorage(dataDir string) (*SessionStorage, error) {
	db, err := InitDB(dataDir)
	if err != nil {
		return nil, err
	}
	return &SessionStorage{db: db, now: time.Now}, nil
}

// Get returns the value for key, or nil if it is missing or expired
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	var val []byte
	expired := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get([]byte(key))
		if len(raw) < 8 {
			return nil
		}
		if exp := int64(binary.BigEndian.Uint64(raw[:8])); exp != 0 && s.now().UnixNano() > exp {
			expired = true
			return nil
		}
		val = append([]byte(nil), raw[8:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, s.Delete(key)
	}
	return val, nil
}

// Set stores val under key. exp of zero keeps it until deleted.
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	var expiry int64
	if exp > 0 {
		expiry = s.now().Add(exp).UnixNano()
	}
	raw := make([]byte, 8+len(val))
	binary.BigEndian.PutUint64(raw[:8], uint64(expiry))
	copy(raw[8:], val)

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(key), raw)
	})
}

// Delete removes key
func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(key))
	})
}

// Reset removes every session
func (s *SessionStorage) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(sessionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(sessionsBucket)
		return err
	})
}

// Sweep deletes expired sessions and returns how many were removed
func (s *SessionStorage) Sweep() (int, error) {
	removed := 0
	now := s.now().UnixNano()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if len(v) < 8 {
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if exp := int64(binary.BigEndian.Uint64(v[:8])); exp != 0 && now > exp {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close closes the database
func (s *SessionStorage) Close() error {
	return s.db.Close()
}
