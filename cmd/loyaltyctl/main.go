// Command loyaltyctl performs administrative tasks against the loyalty
// hub database: seeding configuration, issuing referral links, deleting
// accounts and ensuring indexes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	mongoURI string
	database string
	timeout  time.Duration
	verbose  bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "loyaltyctl",
		Short:         "Administer the loyalty hub database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			timeouts.ConfigureFromEnv()
		},
	}

	cmd.PersistentFlags().StringVar(&g.mongoURI, "mongo-uri", envOr("LOYALTYHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	cmd.PersistentFlags().StringVar(&g.database, "db", envOr("LOYALTYHUB_MONGO_DATABASE", "loyalty_hub"), "MongoDB database name")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", time.Minute, "overall command timeout")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log debug output")

	cmd.AddCommand(
		seedCmd(g),
		linkCmd(g),
		accountCmd(g),
		indexesCmd(g),
	)
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (g *globals) logger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if g.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// session connects to MongoDB and hands the database to fn. The client is
// disconnected when fn returns.
func (g *globals) session(cmd *cobra.Command, fn func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error) error {
	if err := wafflemongo.ValidateURI(g.mongoURI); err != nil {
		return fmt.Errorf("invalid --mongo-uri: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()

	logger := g.logger()
	defer func() { _ = logger.Sync() }()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(g.mongoURI).SetAppName("loyaltyctl"))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer dcancel()
		_ = client.Disconnect(dctx)
	}()

	pctx, pcancel := context.WithTimeout(ctx, timeouts.Ping())
	defer pcancel()
	if err := client.Ping(pctx, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	logger.Debug("connected", zap.String("database", g.database))

	return fn(ctx, client.Database(g.database), logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
