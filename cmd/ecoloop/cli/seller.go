package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSellerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seller",
		Short: "Manage seller accounts",
		Long:  "Inspect and moderate seller accounts from the command line.",
	}

	cmd.AddCommand(newSellerListCmd())
	cmd.AddCommand(newSellerApproveCmd())
	cmd.AddCommand(newSellerRejectCmd())

	return cmd
}

// ---------- seller list ----------

func newSellerListCmd() *cobra.Command {
	var (
		status     string
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List seller accounts",
		Example: `  ecoloop seller list
  ecoloop seller list --status pending
  ecoloop seller list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSellerList(status, limit, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by approval status (pending, approved, rejected)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of sellers to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSellerList(status string, limit int, jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	sellers, total, err := st.ListSellers(context.Background(), status, 1, limit)
	if err != nil {
		return fmt.Errorf("list sellers: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sellers)
	}

	if len(sellers) == 0 {
		fmt.Println("No sellers found.")
		return nil
	}

	fmt.Printf("%-36s %-28s %-24s %-10s %-10s\n", "ID", "EMAIL", "STORE", "STATUS", "APPROVAL")
	fmt.Printf("%-36s %-28s %-24s %-10s %-10s\n", "--", "-----", "-----", "------", "--------")
	for _, s := range sellers {
		fmt.Printf("%-36s %-28s %-24s %-10s %-10s\n",
			s.PublicID, s.Email, s.StoreName, s.Status, s.ApprovalStatus)
	}
	if int64(len(sellers)) < total {
		fmt.Printf("\nShowing %d of %d sellers. Use --limit to show more.\n", len(sellers), total)
	}

	return nil
}

// ---------- seller approve ----------

func newSellerApproveCmd() *cobra.Command {
	var adminEmail string

	cmd := &cobra.Command{
		Use:   "approve <seller-id>",
		Short: "Approve a pending seller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.ApproveSeller(context.Background(), args[0], adminEmail); err != nil {
				return fmt.Errorf("approve seller: %w", err)
			}
			fmt.Printf("Seller %s approved\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&adminEmail, "admin", "cli", "Email of the approving admin, recorded in the audit trail")

	return cmd
}

// ---------- seller reject ----------

func newSellerRejectCmd() *cobra.Command {
	var (
		adminEmail string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "reject <seller-id>",
		Short: "Reject a pending seller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.RejectSeller(context.Background(), args[0], adminEmail, reason); err != nil {
				return fmt.Errorf("reject seller: %w", err)
			}
			fmt.Printf("Seller %s rejected\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&adminEmail, "admin", "cli", "Email of the rejecting admin, recorded in the audit trail")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason communicated to the seller")

	return cmd
}
