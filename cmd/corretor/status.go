package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/orchestrator"
	"github.com/nexliaai/corretor/pkg/poll"
)

var (
	statusWatch   bool
	watchInterval time.Duration
	watchAttempts int
)

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show the extraction status of a document",
	Long:  `Prints the extraction status. With --watch, polls until the document leaves processing; when the attempts run out the extraction is expired.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Poll until the extraction settles")
	addWatchFlags(statusCmd)
	rootCmd.AddCommand(statusCmd)
}

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "Delay between status checks")
	cmd.Flags().IntVar(&watchAttempts, "attempts", 60, "Status checks before the extraction is expired")
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	c := apiClient()

	var view *orchestrator.StatusView
	if statusWatch {
		view, err = watch(cmd.Context(), c, id, cmd.OutOrStdout())
	} else {
		view, err = c.status(cmd.Context(), id)
	}
	if err != nil {
		return err
	}

	printStatus(cmd, view)
	return nil
}

// watch polls the status endpoint until the document leaves pending and
// processing. Exhausting the attempts expires the extraction.
func watch(ctx context.Context, c *client, id uuid.UUID, out io.Writer) (*orchestrator.StatusView, error) {
	var last *orchestrator.StatusView

	check := func(ctx context.Context, attempt int) (bool, error) {
		view, err := c.status(ctx, id)
		if err != nil {
			return false, err
		}
		last = view
		fmt.Fprintf(out, "[%d/%d] %s\n", attempt, watchAttempts, view.Status)
		return settled(view.Status), nil
	}

	attempts, err := poll.Until(ctx, poll.Config{Interval: watchInterval, MaxAttempts: watchAttempts}, poll.TimerSleeper{}, check)
	switch {
	case err == nil:
		return last, nil
	case errors.Is(err, poll.ErrExhausted):
		if _, err := c.expire(ctx, id, attempts); err != nil {
			return nil, fmt.Errorf("expire extraction: %w", err)
		}
		return c.status(ctx, id)
	default:
		return nil, err
	}
}

func settled(s documents.Status) bool {
	return s != documents.StatusPending && s != documents.StatusProcessing
}

func printStatus(cmd *cobra.Command, v *orchestrator.StatusView) {
	cmd.Printf("Document: %s\n\n", v.ID)
	cmd.Printf("  File:     %s\n", v.FileName)
	cmd.Printf("  Category: %s\n", v.Category)
	cmd.Printf("  Status:   %s\n", v.Status)

	if v.StartedAt != nil {
		cmd.Printf("  Started:  %s\n", v.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if v.CompletedAt != nil {
		cmd.Printf("  Finished: %s\n", v.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if v.ErrorMessage != nil {
		cmd.Printf("  Error:    %s\n", *v.ErrorMessage)
	}

	if pc := v.PotentialClient; pc != nil {
		cmd.Printf("\n  Client tax id: %s\n", pc.TaxID)
		if pc.Party != nil {
			cmd.Printf("  Existing client: %s (%s)\n", pc.Party.DisplayName, pc.Party.ID)
		} else {
			cmd.Println("  New client, created on confirmation")
		}
	}

	if len(v.ExtractedData) > 0 {
		var pretty map[string]any
		if json.Unmarshal(v.ExtractedData, &pretty) == nil {
			data, _ := json.MarshalIndent(pretty, "  ", "  ")
			cmd.Printf("\n  Extracted data:\n  %s\n", data)
		}
	}
}
