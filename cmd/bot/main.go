package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdg-garage/achievement-bot/internal/auth"
	"github.com/gdg-garage/achievement-bot/internal/bot"
	"github.com/gdg-garage/achievement-bot/internal/config"
	"github.com/gdg-garage/achievement-bot/internal/database"
	"github.com/gdg-garage/achievement-bot/internal/handlers"
	"github.com/gdg-garage/achievement-bot/internal/roles"
	"github.com/gdg-garage/achievement-bot/internal/store"
	"github.com/go-chi/chi/v5"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load Configuration
	cfg := config.LoadConfig()
	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is not set")
	}

	// Connect to Database
	db := database.Connect(cfg)
	st := store.New(db)

	// Start the Discord bot
	b, err := bot.New(cfg, st)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Run(ctx)
	}()

	// Start the HTTP API
	if cfg.EnableAPI {
		authHandler := auth.NewAuthHandler(cfg, db)
		roleManager := roles.NewDiscordManager(b.Session())
		achievementsHandler := handlers.NewAchievementsHandler(db, st, roleManager, authHandler)
		apiKeyHandler := handlers.NewAPIKeyHandler(db, authHandler)

		r := chi.NewRouter()
		handlers.RegisterRoutes(r, authHandler, achievementsHandler, apiKeyHandler)

		go func() {
			log.Printf("Starting API server on port %s", cfg.Port)
			if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
				log.Printf("API server stopped: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("Received signal %s, shutting down", s)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Printf("Bot error: %v", err)
		}
		cancel()
	}
}
