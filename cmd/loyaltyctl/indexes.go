package main

import (
	"context"
	"fmt"

	"github.com/dalemusser/loyaltyhub/internal/app/system/indexes"
	"github.com/dalemusser/loyaltyhub/internal/app/system/validators"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func indexesCmd(g *globals) *cobra.Command {
	var withValidators bool
	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Manage collection indexes",
	}
	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create or repair every index the service relies on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.session(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				if withValidators {
					if err := validators.EnsureAll(ctx, db); err != nil {
						logger.Warn("validators not applied", zap.Error(err))
					}
				}
				if err := indexes.EnsureAll(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "indexes ensured")
				return nil
			})
		},
	}
	ensure.Flags().BoolVar(&withValidators, "validators", true, "also apply collection JSON schema validators")
	cmd.AddCommand(ensure)
	return cmd
}
