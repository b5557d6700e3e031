package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signer",
		Short: "Signer account commands",
	}

	cmd.AddCommand(newSignerAuthCmd("register", "Register a new signer account", "/api/v1/signers/register"))
	cmd.AddCommand(newSignerAuthCmd("login", "Login with an existing signer account", "/api/v1/signers/login"))
	cmd.AddCommand(newSignerMeCmd())

	return cmd
}

// newSignerAuthCmd builds register and login, which share flags and output
func newSignerAuthCmd(use, short, path string) *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || pass == "" {
				return fmt.Errorf("--user and --pass are required")
			}

			req := map[string]string{
				"username": user,
				"password": pass,
			}
			var result AuthResult

			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newSignerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Me

			if err := client.Get("/api/v1/signers/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

// resolveOwner returns the explicit owner argument, or the owner of the
// authenticated signer or credential
func resolveOwner(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}

	var me Me
	if err := client.Get("/api/v1/signers/me", &me); err != nil {
		return "", err
	}
	if me.Owner == "" {
		return "", fmt.Errorf("could not determine owner, pass it explicitly")
	}
	return me.Owner, nil
}
