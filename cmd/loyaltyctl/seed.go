package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	appconfigstore "github.com/dalemusser/loyaltyhub/internal/app/store/appconfig"
	rewardstore "github.com/dalemusser/loyaltyhub/internal/app/store/rewards"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout read by `loyaltyctl seed`. Omitted sections
// leave the stored document untouched.
type seedFile struct {
	Roles       []string         `yaml:"roles"`
	Projects    []models.Project `yaml:"projects"`
	RewardTypes []string         `yaml:"reward_types"`
	Rewards     []seedReward     `yaml:"rewards"`
}

type seedReward struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Points      int64  `yaml:"points"`
	Inactive    bool   `yaml:"inactive"`
}

func parseSeed(r io.Reader) (seedFile, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return seedFile{}, fmt.Errorf("parse seed file: %w", err)
	}

	for i, role := range f.Roles {
		f.Roles[i] = normalize.Role(role)
		switch f.Roles[i] {
		case models.RoleAdmin, models.RoleEmployee, models.RoleMember:
		default:
			return seedFile{}, fmt.Errorf("roles[%d]: unknown role %q", i, role)
		}
	}
	seen := map[string]bool{}
	for i, p := range f.Projects {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = normalize.Name(p.Name)
		p.Link = strings.TrimSpace(p.Link)
		if p.ID == "" || p.Link == "" {
			return seedFile{}, fmt.Errorf("projects[%d]: id and link are required", i)
		}
		if seen[p.ID] {
			return seedFile{}, fmt.Errorf("projects[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
		f.Projects[i] = p
	}
	for i, rw := range f.Rewards {
		if normalize.Name(rw.Name) == "" {
			return seedFile{}, fmt.Errorf("rewards[%d]: name is required", i)
		}
		if rw.Points < 1 {
			return seedFile{}, fmt.Errorf("rewards[%d]: points must be at least 1", i)
		}
	}
	return f, nil
}

func seedCmd(g *globals) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write roles, projects, reward types and catalog entries from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			f, err := parseSeed(fh)
			if err != nil {
				return err
			}
			return g.session(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				return applySeed(ctx, db, f, cmd.OutOrStdout(), logger)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func applySeed(ctx context.Context, db *mongo.Database, f seedFile, out io.Writer, logger *zap.Logger) error {
	cfg := appconfigstore.New(db)
	if f.Roles != nil {
		if err := cfg.SaveRoles(ctx, f.Roles); err != nil {
			return fmt.Errorf("save roles: %w", err)
		}
		fmt.Fprintf(out, "roles: %d\n", len(f.Roles))
	}
	if f.Projects != nil {
		if err := cfg.SaveProjects(ctx, f.Projects); err != nil {
			return fmt.Errorf("save projects: %w", err)
		}
		fmt.Fprintf(out, "projects: %d\n", len(f.Projects))
	}
	if f.RewardTypes != nil {
		if err := cfg.SaveRewardTypes(ctx, f.RewardTypes); err != nil {
			return fmt.Errorf("save reward types: %w", err)
		}
		fmt.Fprintf(out, "reward types: %d\n", len(f.RewardTypes))
	}
	if len(f.Rewards) == 0 {
		return nil
	}

	rewards := rewardstore.New(db)
	existing, err := rewards.ListTypes(ctx, false)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, rt := range existing {
		have[text.Fold(rt.Name)] = true
	}
	created := 0
	for _, rw := range f.Rewards {
		key := text.Fold(normalize.Name(rw.Name))
		if have[key] {
			logger.Debug("catalog entry exists; skipping", zap.String("name", rw.Name))
			continue
		}
		if _, err := rewards.CreateType(ctx, models.RewardType{
			Name:        rw.Name,
			Description: strings.TrimSpace(rw.Description),
			Points:      rw.Points,
			IsActive:    !rw.Inactive,
		}); err != nil {
			return fmt.Errorf("create reward %q: %w", rw.Name, err)
		}
		have[key] = true
		created++
	}
	fmt.Fprintf(out, "rewards created: %d (of %d)\n", created, len(f.Rewards))
	return nil
}
