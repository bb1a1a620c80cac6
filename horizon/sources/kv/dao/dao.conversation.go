package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"horizon/horizon/sources/kv"
	"horizon/horizon/sources/kv/models"
)

// ErrNotFound is returned when a conversation id has no readable record.
var ErrNotFound = errors.New("conversation not found")

const (
	convPrefix    = "conv:"
	titleMaxRunes = 40
	titleEllipsis = "..."
)

// ConversationDAO persists one record per conversation id. Appends to the
// same id are serialized through a keyed mutex so concurrent writers cannot
// overwrite each other's read-modify-write; different ids proceed
// independently.
type ConversationDAO struct {
	db     *badger.DB
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewConversationDAO(db *kv.Database, logger *zap.Logger) *ConversationDAO {
	return &ConversationDAO{
		db:     db.DB,
		logger: logger,
		locks:  map[string]*sync.Mutex{},
	}
}

// NewConversationID mints an id that sorts chronologically: a fixed-width
// nanosecond prefix plus a short random suffix against same-tick collisions.
func (dao *ConversationDAO) NewConversationID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

func (dao *ConversationDAO) lockFor(id string) *sync.Mutex {
	dao.mu.Lock()
	defer dao.mu.Unlock()
	l, ok := dao.locks[id]
	if !ok {
		l = &sync.Mutex{}
		dao.locks[id] = l
	}
	return l
}

func convKey(id string) []byte {
	return []byte(convPrefix + id)
}

// Append loads the record for id (initializing a fresh one when absent),
// appends msg, bumps updated_at, and writes the whole record back in a
// single transaction.
func (dao *ConversationDAO) Append(ctx context.Context, id, model string, msg models.Message) error {
	lock := dao.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return dao.db.Update(func(txn *badger.Txn) error {
		now := time.Now()
		conv := models.Conversation{
			ID:        id,
			Model:     model,
			CreatedAt: now,
		}

		item, err := txn.Get(convKey(id))
		switch {
		case err == nil:
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &conv)
			}); verr != nil {
				// Unreadable record: start over rather than fail the append.
				dao.logger.Error("conversation record corrupt, reinitializing",
					zap.String("chat_id", id), zap.Error(verr))
				conv = models.Conversation{ID: id, Model: model, CreatedAt: now}
			}
		case errors.Is(err, badger.ErrKeyNotFound):
			// fresh conversation
		default:
			return err
		}

		conv.Messages = append(conv.Messages, msg)
		conv.UpdatedAt = now

		raw, err := json.Marshal(conv)
		if err != nil {
			return err
		}
		return txn.Set(convKey(id), raw)
	})
}

// Get returns the full record, or ErrNotFound when the id is absent or the
// stored record cannot be decoded.
func (dao *ConversationDAO) Get(ctx context.Context, id string) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw []byte
	err := dao.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(convKey(id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var conv models.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		dao.logger.Error("conversation record corrupt",
			zap.String("chat_id", id), zap.Error(err))
		return nil, ErrNotFound
	}
	return &conv, nil
}

// List returns summaries for every readable conversation, newest id first.
// Unreadable records are logged and skipped.
func (dao *ConversationDAO) List(ctx context.Context) ([]models.ConversationSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summaries := []models.ConversationSummary{}
	err := dao.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(convPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var conv models.Conversation
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &conv)
			}); err != nil {
				dao.logger.Error("skipping corrupt conversation record",
					zap.ByteString("key", item.KeyCopy(nil)), zap.Error(err))
				continue
			}
			summaries = append(summaries, models.ConversationSummary{
				ID:        conv.ID,
				Title:     previewTitle(conv),
				Model:     conv.Model,
				UpdatedAt: conv.UpdatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}

// Delete removes the record. Deleting an absent id is not an error.
func (dao *ConversationDAO) Delete(ctx context.Context, id string) error {
	lock := dao.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return dao.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(convKey(id))
	})
}

// previewTitle derives the sidebar title from the first message, capped at
// 40 runes with an ellipsis marker.
func previewTitle(conv models.Conversation) string {
	if len(conv.Messages) == 0 {
		return ""
	}
	content := conv.Messages[0].Content
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + titleEllipsis
}
