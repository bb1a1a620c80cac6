// horizon/controllers/settings.go
package controllers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"horizon/horizon/sources/kv/dao"
	"horizon/horizon/sources/kv/models"
)

type SettingsController struct {
	settings *dao.SettingsDAO
	logger   *zap.Logger
}

func NewSettingsController(settings *dao.SettingsDAO, logger *zap.Logger) *SettingsController {
	return &SettingsController{settings: settings, logger: logger}
}

func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := c.settings.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	settings := models.DefaultUserSettings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := c.settings.Save(r.Context(), settings); err != nil {
		c.logger.Error("save settings failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "settings updated"})
}
