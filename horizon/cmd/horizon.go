// Command-line chat client running against the same engine and store as the
// HTTP server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"horizon/horizon/config"
	"horizon/horizon/services/chat"
	"horizon/horizon/services/ollama"
	"horizon/horizon/services/prompt"
	"horizon/horizon/services/search"
	"horizon/horizon/sources/kv"
	"horizon/horizon/sources/kv/dao"
	"horizon/horizon/utils/logging"
	"horizon/horizon/utils/types"
)

func main() {
	args := os.Args[1:]
	if len(args) < 1 || args[0] != "connect" {
		fmt.Println("Horizon CLI usage:")
		fmt.Println("  horizon connect [model]   # Chat with a local model from the terminal")
		os.Exit(1)
	}

	model := "qwen2.5:7b"
	if len(args) >= 2 {
		model = args[1]
	}

	cfg := config.LoadConfig()
	logs, err := logging.New(cfg.LogDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging init failed:", err)
		os.Exit(1)
	}
	defer logs.Sync()

	db, err := kv.NewDatabase(cfg.DataDir, logs.App)
	if err != nil {
		logs.Error.Error("store open error", zap.Error(err))
		fmt.Fprintln(os.Stderr, "store open failed:", err)
		os.Exit(1)
	}
	defer db.Close()

	conversationDAO := dao.NewConversationDAO(db, logs.Error)
	settingsDAO := dao.NewSettingsDAO(db, logs.Error)
	engine := ollama.NewClient(cfg.OllamaBaseURL, logs.Stream)
	searcher := search.NewClient(cfg.SearchBaseURL, logs.App)
	augmenter := prompt.NewAugmenter(searcher, logs.App)
	orch := chat.NewOrchestrator(conversationDAO, settingsDAO, augmenter, engine, nil, logs.Stream)

	if !engine.CheckConnection(context.Background()) {
		fmt.Fprintln(os.Stderr, "warning: inference engine not reachable at", cfg.OllamaBaseURL)
	}

	fmt.Printf("Connected. Model: %s\n", model)
	fmt.Println("Type your message or 'exit' to quit.")
	fmt.Println()

	chatID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("horizon> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		stream, err := orch.Start(context.Background(), types.ChatRequest{
			Model:  model,
			Prompt: line,
			ChatID: chatID,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		chatID = stream.ChatID

		stream.Run(context.Background(), chat.SinkFunc(func(data string) error {
			var chunk struct {
				Response string `json:"response"`
				Error    string `json:"error"`
			}
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return nil
			}
			if chunk.Error != "" {
				fmt.Fprintln(os.Stderr, "\nupstream error:", chunk.Error)
				return nil
			}
			fmt.Print(chunk.Response)
			return nil
		}))
		fmt.Println()
	}
}
