package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/aretw0/opennote/pkg/core"
)

// CategoriesAdapter implements core.CategoriesAdapter over a badger Store.
type CategoriesAdapter struct {
	db *badger.DB
}

var _ core.CategoriesAdapter = (*CategoriesAdapter)(nil)

// NewCategoriesAdapter returns a categories adapter backed by the given store.
func NewCategoriesAdapter(s *Store) *CategoriesAdapter {
	return &CategoriesAdapter{db: s.db}
}

func (a *CategoriesAdapter) FetchAllCategories(_ context.Context) ([]core.Category, error) {
	categories := []core.Category{}
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(categoryPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var c core.Category
				if err := json.Unmarshal(val, &c); err != nil {
					return fmt.Errorf("decoding category %s: %w", it.Item().Key(), err)
				}
				categories = append(categories, c)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (a *CategoriesAdapter) CreateCategory(_ context.Context, c core.Category) error {
	return a.put(c)
}

func (a *CategoriesAdapter) UpdateCategory(_ context.Context, c core.Category) error {
	key := categoryKey(c.ID)
	return a.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("updating category %s: %w", c.ID, core.ErrCategoryNotFound)
			}
			return err
		}
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding category %s: %w", c.ID, err)
		}
		return txn.Set(key, payload)
	})
}

func (a *CategoriesAdapter) DeleteCategory(_ context.Context, id string) error {
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(categoryKey(id))
	})
}

func (a *CategoriesAdapter) put(c core.Category) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding category %s: %w", c.ID, err)
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(categoryKey(c.ID), payload)
	})
}

func categoryKey(id string) []byte {
	return []byte(categoryPrefix + id)
}
