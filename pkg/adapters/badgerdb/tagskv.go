package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/aretw0/opennote/pkg/core"
)

// TagsAdapter implements core.TagsAdapter. The whole tag list is one JSON
// value under a single key; the collection is small and always saved whole.
type TagsAdapter struct {
	db *badger.DB
}

var _ core.TagsAdapter = (*TagsAdapter)(nil)

// NewTagsAdapter returns a tags adapter backed by the given store.
func NewTagsAdapter(s *Store) *TagsAdapter {
	return &TagsAdapter{db: s.db}
}

func (a *TagsAdapter) FetchAllTags(_ context.Context) ([]string, error) {
	tags := []string{}
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tagsKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tags)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetching tags: %w", err)
	}
	return tags, nil
}

func (a *TagsAdapter) SaveTags(_ context.Context, tags []string) error {
	payload, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tagsKey), payload)
	})
}
