package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/aeris-bot/aeris/config"
	"github.com/aeris-bot/aeris/internal/bot"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("failed to load configuration")
		logger.Info("required: DISCORD_TOKEN, DISCORD_APPLICATION_ID, LAVALINK_NODES (host:port@password[/tls];...)")
		logger.Info("optional: DISCORD_GUILD_ID, LOG_LEVEL, MAX_QUEUE_SIZE, EMPTY_CHANNEL_TIMEOUT, SEARCH_PREFIXES")
		logger.Info("optional: DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE")
		logger.Info("optional: REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB")
		os.Exit(1)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if cfg.IsDevelopment() {
		logger.WithField("guild_id", cfg.GuildID).Info("development mode, commands scoped to guild")
	}
	logger.WithFields(logrus.Fields{
		"nodes":      len(cfg.Nodes),
		"queue_size": cfg.MaxQueueSize,
	}).Info("configuration loaded")

	b, err := bot.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create bot")
	}

	if err := b.Start(context.Background()); err != nil {
		logger.WithError(err).Fatal("failed to start bot")
	}
	logger.Info("bot is running, press CTRL+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	if err := b.Stop(); err != nil {
		logger.WithError(err).Error("failed to stop bot")
	}
}
