package main

import (
	"context"

	"github.com/dalemusser/loyaltyhub/internal/app/accountdeletion"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func accountCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage member accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete MEMBER_ID",
		Short: "Delete a member's identity and member document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				svc := accountdeletion.New(identity.NewMongoProvider(db), memberstore.New(db),
					accountdeletion.DefaultBreaker, logger)
				res, err := svc.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	})
	return cmd
}
