package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecoloopkenya/ecoloop/internal/service"
)

func newMigratePasswordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-passwords",
		Short: "Upgrade all legacy plaintext passwords to bcrypt",
		Long: `Scans the buyer, seller and admin tables for legacy plaintext
passwords and rewrites each one as a bcrypt hash. Already-hashed
passwords are left untouched, so the command is safe to re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigratePasswords()
		},
	}
}

func runMigratePasswords() error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	auth := service.NewAuthService(st, jwtSecret(), 24*time.Hour, newLogger(true))

	fmt.Println("Scanning for legacy plaintext passwords...")
	start := time.Now()

	report, err := auth.MigratePasswords(context.Background())
	if err != nil {
		return fmt.Errorf("migrate passwords: %w", err)
	}

	fmt.Printf("Migrated %d password(s) in %s\n", report.Total(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("  buyers:  %d\n", report.Buyers)
	fmt.Printf("  sellers: %d\n", report.Sellers)
	fmt.Printf("  admins:  %d\n", report.Admins)

	if report.Total() == 0 {
		fmt.Println("All accounts already use hashed passwords.")
	}

	return nil
}
