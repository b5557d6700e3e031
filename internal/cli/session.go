package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session play commands",
		Long: `Session commands act on the delegated session of --owner, or of the
authenticated signer when --owner is not given.`,
	}

	cmd.PersistentFlags().StringVar(&owner, "owner", "", "Profile owner (defaults to the authenticated owner)")

	cmd.AddCommand(newSessionGetCmd(&owner))
	cmd.AddCommand(newSessionActionCmd(&owner, "enter <realm>", "Enter a realm and start a game", cobra.ExactArgs(1),
		"enter", func(args []string) (any, error) {
			return map[string]string{"realm": args[0]}, nil
		}))
	cmd.AddCommand(newSessionActionCmd(&owner, "block <block-type>", "Place a block", cobra.ExactArgs(1),
		"blocks", func(args []string) (any, error) {
			return map[string]string{"block_type": args[0]}, nil
		}))
	cmd.AddCommand(newSessionActionCmd(&owner, "attack <target-type> <damage>", "Attack a target (damage 0-255)", cobra.ExactArgs(2),
		"attacks", func(args []string) (any, error) {
			damage, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid damage: %w", err)
			}
			return map[string]any{"target_type": args[0], "damage": damage}, nil
		}))
	cmd.AddCommand(newSessionActionCmd(&owner, "kill <entity-type> <score-reward>", "Kill an entity", cobra.ExactArgs(2),
		"kills", func(args []string) (any, error) {
			reward, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid score reward: %w", err)
			}
			return map[string]any{"entity_type": args[0], "score_reward": reward}, nil
		}))
	cmd.AddCommand(newSessionActionCmd(&owner, "end", "End the current game", cobra.NoArgs,
		"end", func([]string) (any, error) {
			return nil, nil
		}))

	return cmd
}

func ownerArgs(owner *string) []string {
	if *owner == "" {
		return nil
	}
	return []string{*owner}
}

func newSessionGetCmd(owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the session from whichever venue holds it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := resolveOwner(ownerArgs(owner))
			if err != nil {
				return err
			}

			var result Session

			if err := client.Get(fmt.Sprintf("/api/v1/sessions/%s", o), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

// newSessionActionCmd builds a hot-path action posting body to the session
func newSessionActionCmd(owner *string, use, short string, argsFn cobra.PositionalArgs, action string, body func([]string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  argsFn,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := body(args)
			if err != nil {
				return err
			}

			o, err := resolveOwner(ownerArgs(owner))
			if err != nil {
				return err
			}

			var result Session

			if err := client.Post(fmt.Sprintf("/api/v1/sessions/%s/%s", o, action), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
