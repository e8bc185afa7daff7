package bot

import (
	"context"
	"database/sql"
	"time"

	"github.com/aeris-bot/aeris/config"
	"github.com/aeris-bot/aeris/internal/database"
	commands "github.com/aeris-bot/aeris/internal/features"
	"github.com/aeris-bot/aeris/internal/lavalink"
	"github.com/aeris-bot/aeris/internal/player"
	"github.com/aeris-bot/aeris/internal/redis"
	"github.com/aeris-bot/aeris/internal/settings"
	"github.com/bwmarrin/discordgo"
	redislib "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Bot struct {
	config  *config.Config
	logger  *logrus.Logger
	session *discordgo.Session

	manager *player.Manager
	cluster *lavalink.Cluster

	db    *sql.DB
	redis *redislib.Client

	started      bool
	presenceStop chan struct{}
}

func New(cfg *config.Config, logger *logrus.Logger) (*Bot, error) {
	b := &Bot{
		config: cfg,
		logger: logger,
	}

	db, err := database.Connect(&database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.WithError(err).Warn("database unavailable, status messages will not survive restarts")
	}
	b.db = db

	redisClient, err := redis.Connect(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, guild preferences will not persist")
	}
	b.redis = redisClient

	var prefs *settings.Store
	if redisClient != nil {
		prefs = settings.NewStore(redisClient)
	}

	nodes := make([]*lavalink.Node, 0, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		rest := lavalink.NewRest(nc.Host, nc.Password, nc.TLS)
		nodes = append(nodes, lavalink.NewNode(rest, cfg.ApplicationID, logger))
	}
	b.cluster = lavalink.NewCluster(nodes, logger)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	b.session = session

	messenger := newStatusMessenger(session, database.NewMessageRepository(db), logger)

	b.manager = player.NewManager(player.Config{
		Cluster:        b.cluster,
		Gateway:        &voiceGateway{session: session},
		Messenger:      messenger,
		Settings:       prefs,
		Logger:         logger,
		QueueLimit:     cfg.MaxQueueSize,
		SearchPrefixes: cfg.SearchPrefixes,
		EmptyTimeout:   time.Duration(cfg.EmptyChannelTimeout) * time.Second,
	})

	return b, nil
}

func (b *Bot) Manager() *player.Manager {
	return b.manager
}

func (b *Bot) Start(ctx context.Context) error {
	if b.started {
		return nil
	}

	b.registerHandlers()

	handler := commands.New(commands.Deps{
		Manager: b.manager,
		Logger:  b.logger,
	})
	handler.AddHandlers(b.session)

	if _, err := commands.RegisterCommands(b.session, b.config.ApplicationID, b.config.GuildID); err != nil {
		b.logger.WithError(err).Warn("failed to register slash commands")
	}

	if err := b.session.Open(); err != nil {
		return err
	}

	b.manager.Start(ctx)
	b.startPresenceUpdater()
	b.started = true
	b.logger.Info("gateway session opened")
	return nil
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.WithField("user", r.User.Username).Info("gateway ready")
		b.updatePresence()
	})
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onVoiceServerUpdate)
}

func (b *Bot) Stop() error {
	if !b.started {
		return nil
	}

	b.started = false
	b.stopPresenceUpdater()
	b.manager.Close()

	if err := b.session.Close(); err != nil {
		return err
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.logger.WithError(err).Warn("failed to close database")
		}
	}

	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			b.logger.WithError(err).Warn("failed to close redis")
		}
	}

	b.logger.Info("gateway session closed")
	return nil
}
