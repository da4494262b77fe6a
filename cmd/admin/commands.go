package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mo-amir99/training-portal/internal/content"
)

func newUnlockCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <day>",
		Short: "Unlock a training day",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			return a.withLockedStore(cmd.Context(), func(svc contentService) error {
				if _, err := svc.UnlockDay(cmd.Context(), day, a.actor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Day %d unlocked successfully\n", day)
				return nil
			})
		},
	}
}

func newLockCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <day>",
		Short: "Lock a training day",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			return a.withLockedStore(cmd.Context(), func(svc contentService) error {
				if _, err := svc.LockDay(cmd.Context(), day); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Day %d locked successfully\n", day)
				return nil
			})
		},
	}
}

func newUnlockAllCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock-all",
		Short: "Unlock every training day",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLockedStore(cmd.Context(), func(svc contentService) error {
				n, err := svc.UnlockAllDays(cmd.Context(), a.actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "All %d days unlocked successfully\n", n)
				return nil
			})
		},
	}
}

func newUploadCommand(a *app) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "upload <day> <title> <url> <duration>",
		Short: "Attach a recording to a training day",
		Long: `Attach a recording to a training day, replacing any recording the day already has.
The platform is detected from the URL unless --platform is given.`,
		Example: `  admin upload 1 "Day 1 Recording" "https://youtube.com/watch?v=abc" "2h 30min"`,
		Args:    exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			in := content.UploadInput{
				DayNumber: day,
				Title:     args[1],
				VideoURL:  args[2],
				Duration:  args[3],
				Actor:     a.actor,
			}
			if platform != "" {
				p, err := content.ParsePlatform(platform)
				if err != nil {
					return usageError{err}
				}
				in.Platform = p
			}

			return a.withLockedStore(cmd.Context(), func(svc contentService) error {
				rec, err := svc.UploadRecording(cmd.Context(), in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recording uploaded for Day %d\n", day)
				fmt.Fprintf(out, "  id:       %s\n", rec.RecordingID)
				fmt.Fprintf(out, "  platform: %s\n", rec.Platform)
				fmt.Fprintf(out, "  embed:    %s\n", rec.EmbedURL)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Video platform: youtube, vimeo, azure or direct")
	return cmd
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <day>",
		Short: "Remove the recording of a training day",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			return a.withLockedStore(cmd.Context(), func(svc contentService) error {
				n, err := svc.RemoveRecording(cmd.Context(), day)
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Day %d had no recording\n", day)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording removed for Day %d\n", day)
				return nil
			})
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show current statistics",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(svc contentService) error {
				stats, err := svc.GetStats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				renderStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statistics as JSON")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export days, recordings and stats as JSON files",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(svc contentService) error {
				if err := svc.ExportForGitHub(cmd.Context(), dir); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Data exported to %s%c\n", filepath.Clean(dir), filepath.Separator)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "output", "o", "data", "Directory the JSON files are written to")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all days and their status",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(svc contentService) error {
				days := svc.GetAllDays(cmd.Context())
				recs := svc.GetAllRecordings(cmd.Context())
				if asJSON {
					return writeJSON(cmd, days)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderDays(days, recs, shouldDecorate(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print days as JSON")
	return cmd
}
