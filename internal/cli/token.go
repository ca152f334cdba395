package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/token"
)

func newTokenCmd(load loader) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage launch tokens",
	}

	var claims domain.LaunchClaims
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a launch token for an assistant and thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			raw, err := token.NewIssuer(cfg.Token.Secret, cfg.Token.TTL).Issue(claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&claims.AssistantID, "assistant-id", "", "assistant id")
	issueCmd.Flags().StringVar(&claims.ThreadID, "thread-id", "", "thread id")
	issueCmd.Flags().StringVar(&claims.Title, "title", token.DefaultTitle, "chat window title")
	_ = issueCmd.MarkFlagRequired("assistant-id")
	_ = issueCmd.MarkFlagRequired("thread-id")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}
