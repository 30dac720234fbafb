package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"strconv"
)

type Config struct {
	endpoint        string
	dsn             string
	ordersFile      string
	monitorInterval int
	notifyChannelID string
	adminChannelID  string
	logChannelID    string
	discordToken    string
	authSecretKey   string
	logLevel        string
	env             string
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

func NewConfig() Config {
	var (
		endpoint        string
		dsn             string
		ordersFile      string
		monitorInterval int
	)

	flag.StringVar(&endpoint, "a", "localhost:8090", "address and port to run server")
	flag.StringVar(&dsn, "d", "", "data source name for database connection")
	flag.StringVar(&ordersFile, "f", "orders.json", "path to the orders file used when no database is configured")
	flag.IntVar(&monitorInterval, "i", 60, "deadline monitor interval in seconds")
	flag.Parse()

	if address := os.Getenv("RUN_ADDRESS"); address != "" {
		endpoint = address
	}

	if d := os.Getenv("DATABASE_URI"); d != "" {
		dsn = d
	}

	if f := os.Getenv("ORDERS_FILE"); f != "" {
		ordersFile = f
	}

	if i := os.Getenv("MONITOR_INTERVAL"); i != "" {
		parsed, err := strconv.Atoi(i)
		if err != nil || parsed <= 0 {
			log.Printf("WARNING: MONITOR_INTERVAL %q is not a positive number, keeping %d\n", i, monitorInterval)
		} else {
			monitorInterval = parsed
		}
	}

	config := Config{
		endpoint:        endpoint,
		dsn:             dsn,
		ordersFile:      ordersFile,
		monitorInterval: monitorInterval,
		notifyChannelID: os.Getenv("NOTIFY_CHANNEL_ID"),
		adminChannelID:  os.Getenv("ADMIN_CHANNEL_ID"),
		logChannelID:    os.Getenv("LOG_CHANNEL_ID"),
		discordToken:    os.Getenv("DISCORD_TOKEN"),
	}

	if l := os.Getenv("LOG_LEVEL"); l != "" {
		config.logLevel = l
	} else {
		config.logLevel = "error"
	}

	if e := os.Getenv("ENV"); e != "" {
		config.env = e
	} else {
		config.env = "production"
	}

	if secret := os.Getenv("AUTH_SECRET_KEY"); secret != "" {
		config.authSecretKey = secret
	} else {
		if config.env == "production" {
			config.authSecretKey = generateRandomString(10)
			log.Printf("WARNING: AUTH_SECRET_KEY has to be defined for production environment\n")
		} else {
			config.authSecretKey = "development-key"
		}
	}

	return config
}
