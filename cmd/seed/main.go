package main

import (
	"context"
	"feedbackbot/internal/config"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/repository"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seed inserts sample classified feedback so the admin API has data to filter
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("failed to connect to mongodb", "error", err)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewFeedbackRepo(client.Database(cfg.Mongo.Database))
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to create indexes", "error", err)
	}

	now := time.Now().UTC()
	samples := []model.FeedbackRecord{
		{
			ChatID: 1001, Role: model.RoleMechanic, Branch: "East",
			Message:              "Підйомник на третьому посту не працює вже тиждень.",
			Sentiment:            model.SentimentNegative,
			CriticalityLevel:     5,
			ResolutionSuggestion: "Терміново викликати сервіс для ремонту підйомника.",
		},
		{
			ChatID: 1002, Role: model.RoleElectrician, Branch: "East",
			Message:              "Нові діагностичні сканери дуже зручні.",
			Sentiment:            model.SentimentPositive,
			CriticalityLevel:     1,
			ResolutionSuggestion: "Поділитися досвідом з іншими філіями.",
		},
		{
			ChatID: 1003, Role: model.RoleManager, Branch: "West",
			Message:              "Клієнти скаржаться на довге очікування запчастин.",
			Sentiment:            model.SentimentNegative,
			CriticalityLevel:     4,
			ResolutionSuggestion: "Переглянути постачальників та збільшити складський запас.",
		},
		{
			ChatID: 1004, Role: model.RoleMechanic, Branch: "West",
			Message:              "Графік змін цього місяця нормальний.",
			Sentiment:            model.SentimentNeutral,
			CriticalityLevel:     2,
			ResolutionSuggestion: "Конкретного рішення не запропоновано.",
		},
	}

	for i := range samples {
		samples[i].SubmittedAt = now.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &samples[i]); err != nil {
			log.Fatal("failed to insert feedback", "error", err)
		}
	}

	log.Info("seeded feedback records", "count", len(samples), "database", cfg.Mongo.Database)
}
