package ledger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const badgerPrefix = "relayed/"

// BadgerLedger persists relayed keys in a local badger database
type BadgerLedger struct {
	db *badger.DB
}

var _ Ledger = (*BadgerLedger)(nil)

// OpenBadger opens or creates the ledger database at path
func OpenBadger(path string) (*BadgerLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger at %s: %w", path, err)
	}
	return &BadgerLedger{db: db}, nil
}

func fullKey(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}
	return []byte(badgerPrefix + key), nil
}

func (b *BadgerLedger) Seen(key string) (bool, error) {
	k, err := fullKey(key)
	if err != nil {
		return false, err
	}

	err = b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read ledger key %s: %w", key, err)
	}
	return true, nil
}

func (b *BadgerLedger) Mark(key string, taskID string) error {
	k, err := fullKey(key)
	if err != nil {
		return err
	}

	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, []byte(taskID))
	}); err != nil {
		return fmt.Errorf("failed to write ledger key %s: %w", key, err)
	}
	return nil
}

// TaskID returns the relay task id recorded for key
func (b *BadgerLedger) TaskID(key string) (string, bool, error) {
	k, err := fullKey(key)
	if err != nil {
		return "", false, err
	}

	var val []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}

func (b *BadgerLedger) Close() error {
	return b.db.Close()
}
