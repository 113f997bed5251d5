package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"errorcollector/src/config"
	"errorcollector/src/database"
	"errorcollector/src/server"

	logger "github.com/sirupsen/logrus"
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.InfoLevel
	}

	logger.SetLevel(level)
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logger.SetFormatter(&logger.JSONFormatter{})
	} else {
		logger.SetFormatter(&logger.TextFormatter{
			FullTimestamp: true,
		})
	}
}

func main() {
	SetupLogger()
	defer handlePanic()

	// Schema migration must finish before the listener accepts webhooks.
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	server.StartServer(server.GetConfig().Port, config.GetSettings())
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error("Application error-collector panic")
	}
	//nolint
	time.Sleep(time.Second * 5)
}
