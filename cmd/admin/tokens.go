package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddTokensCmd() *cobra.Command {
	var (
		user   string
		amount int64
		reason string
	)

	cmd := &cobra.Command{
		Use:   "add-tokens",
		Short: "Add tokens to a user's balance",
		Long: `Add tokens to a user's balance. The grant is recorded in the audit
trail as an admin_addition transaction.`,
		Example: `  admin add-tokens --user john@example.com --amount 1000
  admin add-tokens --user 42 --amount 500 --reason "Support credit"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return fmt.Errorf("amount must be positive")
			}

			ctx := cmd.Context()
			found, err := findUser(ctx, user)
			if err != nil {
				return err
			}

			description := reason
			if description == "" {
				description = fmt.Sprintf("Admin grant: %d tokens", amount)
			}

			newBalance, err := ledgerSvc.AdminCredit(ctx, found.ID, amount, description)
			if err != nil {
				return fmt.Errorf("failed to add tokens: %w", err)
			}

			fmt.Printf("Added %d tokens to %s\n", amount, found.Username)
			fmt.Printf("New balance: %d tokens\n", newBalance)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User identifier (id, email, or username)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Number of tokens to add")
	cmd.Flags().StringVar(&reason, "reason", "", "Audit trail description")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newSetTokensCmd() *cobra.Command {
	var (
		user   string
		amount int64
		reason string
	)

	cmd := &cobra.Command{
		Use:   "set-tokens",
		Short: "Set a user's token balance to an exact value",
		Long: `Overwrite a user's token balance. The implied delta is recorded in
the audit trail as an admin_set transaction.`,
		Example: `  admin set-tokens --user john --amount 5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount < 0 {
				return fmt.Errorf("amount must not be negative")
			}

			ctx := cmd.Context()
			found, err := findUser(ctx, user)
			if err != nil {
				return err
			}

			description := reason
			if description == "" {
				description = fmt.Sprintf("Admin set balance: %d tokens", amount)
			}

			previous, err := ledgerSvc.SetBalance(ctx, found.ID, amount, description)
			if err != nil {
				return fmt.Errorf("failed to set tokens: %w", err)
			}

			fmt.Printf("Set %s's tokens from %d to %d\n", found.Username, previous, amount)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User identifier (id, email, or username)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "New token balance")
	cmd.Flags().StringVar(&reason, "reason", "", "Audit trail description")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
