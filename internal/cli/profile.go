package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile and custody commands",
	}

	cmd.AddCommand(newProfileCreateCmd())
	cmd.AddCommand(newProfileGetCmd())
	cmd.AddCommand(newProfileSessionCmd("delegate", "Hand the session to the fast venue", "delegate"))
	cmd.AddCommand(newProfileSettleCmd())
	cmd.AddCommand(newProfileCheckpointCmd())
	cmd.AddCommand(newProfileCredentialCmd())

	return cmd
}

func newProfileCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the profile owned by the current signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Post("/api/v1/profiles", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [owner]",
		Short: "Show a profile's lifetime totals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveOwner(args)
			if err != nil {
				return err
			}

			var result Profile

			if err := client.Get(fmt.Sprintf("/api/v1/profiles/%s", owner), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

// newProfileSessionCmd builds a custody action that returns the session
func newProfileSessionCmd(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [owner]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveOwner(args)
			if err != nil {
				return err
			}

			var result Session

			if err := client.Post(fmt.Sprintf("/api/v1/profiles/%s/%s", owner, action), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProfileSettleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle [owner]",
		Short: "Fold the ended session into the profile and undelegate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveOwner(args)
			if err != nil {
				return err
			}

			var result Profile

			if err := client.Post(fmt.Sprintf("/api/v1/profiles/%s/settle", owner), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProfileCheckpointCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "checkpoint [owner]",
		Short: "Commit the delegated session to the durable venue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveOwner(args)
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/api/v1/profiles/%s/checkpoint", owner)
			var result Session

			if show {
				err = client.Get(path, &result)
			} else {
				err = client.Post(path, nil, &result)
			}
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Show the last checkpoint instead of committing a new one")

	return cmd
}

func newProfileCredentialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credential [owner]",
		Short: "Issue a session credential for use with --key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveOwner(args)
			if err != nil {
				return err
			}

			var result CredentialResult

			if err := client.Post(fmt.Sprintf("/api/v1/profiles/%s/credentials", owner), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
