package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nexliaai/corretor/internal/orchestrator"
)

var (
	confirmFields   string
	confirmParty    string
	confirmCategory string
)

var confirmCmd = &cobra.Command{
	Use:   "confirm [document-id]",
	Short: "Confirm a reviewed extraction",
	Long:  `Confirms the extraction, optionally replacing it with corrected fields from a JSON file and assigning the owning client explicitly.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfirm,
}

func init() {
	confirmCmd.Flags().StringVarP(&confirmFields, "fields", "f", "", "JSON file with the corrected payload")
	confirmCmd.Flags().StringVarP(&confirmParty, "party", "p", "", "Owning party id")
	confirmCmd.Flags().StringVar(&confirmCategory, "category", "", "Category override")
	rootCmd.AddCommand(confirmCmd)
}

func runConfirm(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	req := orchestrator.ConfirmCommand{DocumentID: id}

	if confirmFields != "" {
		data, err := os.ReadFile(confirmFields)
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			return fmt.Errorf("%s is not valid JSON", confirmFields)
		}
		req.Fields = data
	}
	if confirmParty != "" {
		pid, err := uuid.Parse(confirmParty)
		if err != nil {
			return fmt.Errorf("invalid party id: %w", err)
		}
		req.PartyID = &pid
	}
	if confirmCategory != "" {
		req.Category = &confirmCategory
	}

	res, err := apiClient().confirm(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("confirm failed: %w", err)
	}

	cmd.Printf("Confirmed %s\n", res.DocumentID)
	cmd.Printf("  Status: %s\n", res.Status)
	if res.Party != nil {
		cmd.Printf("  Client: %s (%s, %s)\n", res.Party.DisplayName, res.Party.ID, res.Outcome)
	}
	if res.Policy != nil && res.Policy.NumeroApolice != nil {
		cmd.Printf("  Policy: %s\n", *res.Policy.NumeroApolice)
	}
	return nil
}
