package main

import (
	"context"

	"github.com/dalemusser/loyaltyhub/internal/app/referral"
	appconfigstore "github.com/dalemusser/loyaltyhub/internal/app/store/appconfig"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	referralstore "github.com/dalemusser/loyaltyhub/internal/app/store/referrallinks"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func linkCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Generate referral links and read their statistics",
	}
	cmd.AddCommand(linkGenerateCmd(g), linkStatsCmd(g))
	return cmd
}

func engine(db *mongo.Database, logger *zap.Logger) *referral.Engine {
	return referral.New(memberstore.New(db), referralstore.New(db), logger)
}

func linkGenerateCmd(g *globals) *cobra.Command {
	var memberID, projectID, creatorID string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create a referral link for a member on a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.session(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				snap, err := appconfigstore.New(db).Snapshot(ctx)
				if err != nil {
					return err
				}
				link, err := engine(db, logger).GenerateLink(ctx, snap, creatorID, memberID, projectID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), link)
			})
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "member id the link belongs to")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&creatorID, "creator", "loyaltyctl", "identity recorded as the link's creator")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func linkStatsCmd(g *globals) *cobra.Command {
	var withSignups bool
	cmd := &cobra.Command{
		Use:   "stats CODE",
		Short: "Show signup, click and reward counts for a referral code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				e := engine(db, logger)
				stats, err := e.ComputeStats(ctx, args[0])
				if err != nil {
					return err
				}
				if !withSignups {
					return printJSON(cmd.OutOrStdout(), stats)
				}
				refs, err := e.Referrals(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"stats": stats, "referrals": refs})
			})
		},
	}
	cmd.Flags().BoolVar(&withSignups, "signups", false, "also list the attributed members")
	return cmd
}
