package dao

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"horizon/horizon/sources/kv"
	"horizon/horizon/sources/kv/models"
)

const settingsKey = "settings:user"

// SettingsDAO stores the single user-settings record. An absent or
// unreadable record yields the defaults.
type SettingsDAO struct {
	db     *badger.DB
	logger *zap.Logger
}

func NewSettingsDAO(db *kv.Database, logger *zap.Logger) *SettingsDAO {
	return &SettingsDAO{db: db.DB, logger: logger}
}

func (dao *SettingsDAO) Load(ctx context.Context) (models.UserSettings, error) {
	settings := models.DefaultUserSettings()
	if err := ctx.Err(); err != nil {
		return settings, err
	}
	err := dao.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.DefaultUserSettings(), nil
		}
		dao.logger.Error("settings record unreadable, using defaults", zap.Error(err))
		return models.DefaultUserSettings(), nil
	}
	return settings, nil
}

func (dao *SettingsDAO) Save(ctx context.Context, settings models.UserSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return dao.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), raw)
	})
}
