package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"laporan/internal/auth"
	"laporan/internal/cli"
	"laporan/internal/core"
	"laporan/internal/storage"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the admin account and division settings",
		Long: `Create the first admin account and, optionally, the division settings
used by the saving allocation view. Existing rows are left alone, so the
command is safe to run more than once.

Divisions are given as name=nominal, for example:

  laporanctl seed --admin-password s3cret --division "Divisi IT=2500000"`,
		RunE: runSeed,
	}
	cmd.Flags().String("admin-user", "admin", "username of the admin account")
	cmd.Flags().String("admin-password", "", "password of the admin account (skipped when empty)")
	cmd.Flags().StringArray("division", nil, "division setting as name=nominal, repeatable")
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	username, _ := cmd.Flags().GetString("admin-user")
	password, _ := cmd.Flags().GetString("admin-password")
	specs, _ := cmd.Flags().GetStringArray("division")

	divisions, err := parseDivisions(specs)
	if err != nil {
		return err
	}

	be := cli.OpenBackend(ctx, logger, cfg)
	defer be.Cleanup()

	if password != "" {
		if err := seedAdmin(ctx, be.Store, username, password); err != nil {
			return err
		}
	}
	return seedDivisions(ctx, be.Store, divisions)
}

func seedAdmin(ctx context.Context, store storage.Store, username, password string) error {
	if _, err := store.GetUserByUsername(ctx, username); err == nil {
		logger.Info("Admin account already present", "username", username)
		return nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("look up %s: %w", username, err)
	}
	svc := auth.NewService(store, nil, logger)
	_, err := svc.CreateUser(ctx, core.User{Username: username, FullName: "Administrator", Role: core.RoleAdmin}, password)
	return err
}

func seedDivisions(ctx context.Context, store storage.Store, divisions []core.DivisionSetting) error {
	existing, err := store.ListDivisionSettings(ctx)
	if err != nil {
		return fmt.Errorf("list division settings: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, d := range existing {
		have[strings.ToLower(d.Name)] = true
	}

	created := 0
	for i, d := range divisions {
		if have[strings.ToLower(d.Name)] {
			continue
		}
		d.DisplayOrder = len(existing) + i + 1
		if _, err := store.CreateDivisionSetting(ctx, d); err != nil {
			return fmt.Errorf("create division %s: %w", d.Name, err)
		}
		created++
	}
	logger.Info("Division settings seeded", "created", created, "skipped", len(divisions)-created)
	return nil
}

func parseDivisions(specs []string) ([]core.DivisionSetting, error) {
	out := make([]core.DivisionSetting, 0, len(specs))
	for _, spec := range specs {
		name, nominal, ok := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --division %q: expected name=nominal", spec)
		}
		amount, err := core.ParseAmount(nominal)
		if err != nil {
			return nil, fmt.Errorf("invalid --division %q: %w", spec, err)
		}
		out = append(out, core.DivisionSetting{Name: name, Nominal: amount})
	}
	return out, nil
}
