package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"horizon/horizon/config"
	"horizon/horizon/controllers"
	"horizon/horizon/middlewares"
	"horizon/horizon/routes"
	"horizon/horizon/services/chat"
	"horizon/horizon/services/ollama"
	"horizon/horizon/services/prompt"
	"horizon/horizon/services/search"
	"horizon/horizon/sources/kv"
	"horizon/horizon/sources/kv/dao"
	"horizon/horizon/sources/storage"
	"horizon/horizon/utils/logging"
)

func main() {
	cfg := config.LoadConfig()
	logs, err := logging.New(cfg.LogDir)
	if err != nil {
		os.Exit(1)
	}
	defer logs.Sync()

	db, err := kv.NewDatabase(cfg.DataDir, logs.App)
	if err != nil {
		logs.Error.Error("store open error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	conversationDAO := dao.NewConversationDAO(db, logs.Error)
	settingsDAO := dao.NewSettingsDAO(db, logs.Error)

	engine := ollama.NewClient(cfg.OllamaBaseURL, logs.Stream)
	searcher := search.NewClient(cfg.SearchBaseURL, logs.App)
	augmenter := prompt.NewAugmenter(searcher, logs.App)

	// Attachment archive is optional: no endpoint, no archive.
	var archive *storage.MinIOClient
	if cfg.MinIOEndpoint != "" {
		archive, err = storage.NewMinIOClient(cfg)
		if err != nil {
			logs.Error.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
	}

	orch := chat.NewOrchestrator(conversationDAO, settingsDAO, augmenter, engine, archive, logs.Stream)

	chatCtrl := controllers.NewChatController(orch, logs.Error)
	convCtrl := controllers.NewConversationsController(conversationDAO, logs.Error)
	modelsCtrl := controllers.NewModelsController(engine, logs.Error)
	settingsCtrl := controllers.NewSettingsController(settingsDAO, logs.Error)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CORS)

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/chat", routes.ChatRoutes(chatCtrl))
		api.Mount("/conversations", routes.ConversationRoutes(convCtrl))
		api.Mount("/models", routes.ModelRoutes(modelsCtrl))
		api.Mount("/settings", routes.SettingsRoutes(settingsCtrl))
		api.Mount("/health", routes.HealthRoutes(healthCtrl))
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	go func() {
		logs.App.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Error.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Error.Error("server shutdown error", zap.Error(err))
	}
	logs.App.Info("server shutdown complete")
}
