package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mo-amir99/training-portal/pkg/validation"
)

// usageError marks bad invocations so main prints the command usage with it.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Training portal admin tool",
		Long:          "Manage training days and recordings stored in OneLake.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  admin unlock 1
  admin unlock-all
  admin upload 1 "Session 1" "https://youtu.be/xxx" "2h"
  admin export -o data`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			actor, err := validation.NormalizeActor(a.actor)
			if err != nil {
				return usageError{err}
			}
			a.actor = actor
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageError{fmt.Errorf("a command is required")}
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.actor, "actor", "admin", "Name recorded as the unlocking or uploading admin")

	root.AddCommand(
		newUnlockCommand(a),
		newLockCommand(a),
		newUnlockAllCommand(a),
		newUploadCommand(a),
		newRemoveCommand(a),
		newStatsCommand(a),
		newExportCommand(a),
		newListCommand(a),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a usageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day <= 0 {
		return 0, usageError{fmt.Errorf("invalid day %q: must be a positive integer", s)}
	}
	return day, nil
}
