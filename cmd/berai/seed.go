package main

import (
	"fmt"

	"github.com/berai-dev/berai/internal/services"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := setup()
			if err != nil {
				return err
			}

			svc := services.New(services.Deps{DB: gdb})

			created, err := svc.Users.Seed(cmd.Context(), services.DefaultSeedUsers, password)
			if err != nil {
				return fmt.Errorf("failed to seed users: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d user(s)\n", created)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "password", "password for the seeded accounts")

	return cmd
}
