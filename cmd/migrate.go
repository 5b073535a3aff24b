package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/optical-pos/internal/core/storage"
)

var migrateCmd = &cobra.Command{
	RunE:  run(runMigration),
	Use:   "migrate",
	Short: "create or update the tables for every datamodel",
}

func runMigration(ctx context.Context, deps *Dependencies, _ []string) error {
	if err := storage.AutoMigrate(deps.DB.WithContext(ctx)); err != nil {
		return err
	}
	if err := deps.Operators.EnsurePermissions(ctx); err != nil {
		return err
	}
	fmt.Println("schema is up to date")
	return nil
}
