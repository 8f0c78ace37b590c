package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kodella-ai/kodella/internal/store/schema"
)

// findUser resolves a user by id, email, or username
func findUser(ctx context.Context, identifier string) (*schema.User, error) {
	if identifier == "" {
		return nil, fmt.Errorf("user identifier required")
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		user, err := dataStore.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	user, err := dataStore.GetUserByEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = dataStore.GetUserByUsername(ctx, identifier)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, fmt.Errorf("user not found: %s", identifier)
	}
	return user, nil
}

func newListUsersCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list-users",
		Short: "List registered users, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := dataStore.ListUsers(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No users found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tTOKENS\tCREATED")
			for _, user := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					user.ID, user.Username, user.Email, user.Tokens,
					user.CreatedAt.Format("2006-01-02"))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nShowing %d users\n", len(users))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of users to show")

	return cmd
}

func newUserInfoCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "user-info",
		Short: "Show a user's account, plugin counters and recent transactions",
		Example: `  admin user-info --user john@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			found, err := findUser(ctx, user)
			if err != nil {
				return err
			}

			stats, err := dataStore.GetUserPluginStats(ctx, found.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch plugin stats: %w", err)
			}

			transactions, err := dataStore.ListTransactions(ctx, found.ID, 5)
			if err != nil {
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			fmt.Printf("User: %s (id %d)\n", found.Username, found.ID)
			fmt.Printf("Email: %s\n", found.Email)
			fmt.Printf("Tokens: %d\n", found.Tokens)
			fmt.Printf("Registered: %s\n", found.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Plugins: %d (tokens used: %d)\n", stats.Total, stats.TokensUsed)

			if len(transactions) > 0 {
				fmt.Println("\nRecent transactions:")
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "AMOUNT\tTYPE\tDESCRIPTION\tDATE")
				for _, tx := range transactions {
					fmt.Fprintf(w, "%+d\t%s\t%s\t%s\n",
						tx.Amount, tx.Type, tx.Description,
						tx.CreatedAt.Format("2006-01-02 15:04"))
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User identifier (id, email, or username)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
