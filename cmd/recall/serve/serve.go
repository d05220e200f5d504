// Package servecmder provides the serve command for running the memory server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/api"
	"github.com/papercomputeco/recall/pkg/config"
	"github.com/papercomputeco/recall/pkg/eventstream"
	eventkafka "github.com/papercomputeco/recall/pkg/eventstream/kafka"
	"github.com/papercomputeco/recall/pkg/logger"
	"github.com/papercomputeco/recall/pkg/memory"
	"github.com/papercomputeco/recall/pkg/store/inmemory"
	storemongo "github.com/papercomputeco/recall/pkg/store/mongo"
)

type ServeCommander struct {
	listen    string
	mongoURI  string
	database  string
	configDir string
	debug     bool
	logger    *zap.Logger
}

const serveLongDesc string = `Run the Recall memory server.

The server exposes the memory tool set over MCP (streamable HTTP at /mcp),
REST-style aliases (/tools/list, /tools/call, /mcp/:tool), and an SSE push
channel (/sse). Storage is in-memory by default; pass --mongo-uri or set
storage.provider = "mongo" in config.toml for persistence.`

const serveShortDesc string = "Run the Recall memory server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the server to listen on (default :3000)")
	cmd.Flags().StringVarP(&cmder.mongoURI, "mongo-uri", "m", "", "MongoDB connection URI (default: in-memory storage)")
	cmd.Flags().StringVar(&cmder.database, "database", "", "MongoDB database name")
	cmd.Flags().StringVarP(&cmder.configDir, "config-dir", "c", "", "Directory holding config.toml")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	store, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	broadcast := eventstream.NewBroadcaster()
	defer broadcast.Close()

	publisher, err := c.newPublisher(cfg, broadcast)
	if err != nil {
		return err
	}
	defer publisher.Close()

	service := memory.NewService(store, c.logger)

	server, err := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, service, broadcast, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *ServeCommander) loadConfig() (*config.Config, error) {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}

	// Flags beat everything below them.
	if c.listen != "" {
		cfg.API.Listen = c.listen
	}
	if c.mongoURI != "" {
		cfg.Storage.Provider = "mongo"
		cfg.Storage.MongoURI = c.mongoURI
	}
	if c.database != "" {
		cfg.Storage.Database = c.database
	}

	return cfg, nil
}

func (c *ServeCommander) newStore(ctx context.Context, cfg *config.Config) (memory.Store, error) {
	switch cfg.Storage.Provider {
	case "mongo":
		if cfg.Storage.MongoURI == "" {
			return nil, fmt.Errorf("storage.mongo_uri is required for the mongo provider")
		}
		driver, err := storemongo.NewDriver(ctx, cfg.Storage.MongoURI, cfg.Storage.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB store: %w", err)
		}
		c.logger.Info("using MongoDB storage", zap.String("database", cfg.Storage.Database))
		return driver, nil

	case "", "memory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

func (c *ServeCommander) newPublisher(cfg *config.Config, broadcast *eventstream.Broadcaster) (eventstream.Publisher, error) {
	if len(cfg.Events.KafkaBrokers) == 0 {
		return eventstream.NewMulti(broadcast), nil
	}

	kafkaPub, err := eventkafka.NewPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	c.logger.Info("publishing memory events to Kafka",
		zap.Strings("brokers", cfg.Events.KafkaBrokers),
		zap.String("topic", cfg.Events.KafkaTopic),
	)
	return eventstream.NewMulti(broadcast, kafkaPub), nil
}
