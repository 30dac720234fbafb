package main

import (
	"context"
	"log"
	"time"

	"github.com/cavestore/orderbot/internal/database"
	router "github.com/cavestore/orderbot/internal/http"
	"github.com/cavestore/orderbot/internal/logger"
	"github.com/cavestore/orderbot/internal/models"
	"github.com/cavestore/orderbot/internal/services"
	"github.com/cavestore/orderbot/internal/storage"
	"github.com/cavestore/orderbot/internal/utils"
)

func main() {
	ctx := context.Background()
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	var store storage.Store
	if config.dsn != "" {
		db, err := database.New(ctx, config.dsn)
		if err != nil {
			log.Fatalf("Database wasn't initialized due to %s", err)
		}

		if err := db.RunMigrations(); err != nil {
			log.Fatalf("Migrations weren't run due to %s", err)
		}

		store = db
	} else {
		store = storage.NewFileStore(config.ordersFile)
	}

	var notifier models.Notifier
	if config.discordToken != "" {
		notifier = services.NewDiscordNotifier(config.discordToken)
	} else {
		log.Println("DISCORD_TOKEN is not set, notifications go to the log only")
		notifier = services.NewLogNotifier()
	}

	orderService := services.NewOrderService(store, notifier, services.NotifyChannels{
		Log:    config.logChannelID,
		Admin:  config.adminChannelID,
		Notify: config.notifyChannelID,
	})

	monitor := services.NewMonitorService(
		orderService,
		notifier,
		config.notifyChannelID,
		time.Duration(config.monitorInterval)*time.Second,
	)
	monitor.Start(ctx)

	utils.HandleTerminationProcess(func() {
		monitor.Stop()
		_ = store.Close()
	})

	log.Printf("Running server on %s\n", config.endpoint)

	router.New(
		router.Config{Endpoint: config.endpoint},
		services.NewJWTService(config.authSecretKey),
		orderService,
		services.NewPricingService(),
	).Run()
}
