package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	uploadCategory string
	uploadWait     bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a document for extraction",
	Long:  `Stores the file under the given category and queues it for extraction. With --wait, follows the extraction until it settles.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadCategory, "category", "c", "apolice_auto", "Document category")
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "Wait for the extraction to settle")
	addWatchFlags(uploadCmd)
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	c := apiClient()

	doc, err := c.upload(cmd.Context(), args[0], uploadCategory)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	cmd.Printf("Uploaded %s\n", doc.Filename)
	cmd.Printf("  ID:       %s\n", doc.ID)
	cmd.Printf("  Category: %s\n", doc.Category)
	cmd.Printf("  Status:   %s\n", doc.Status)

	if !uploadWait {
		return nil
	}

	view, err := watch(cmd.Context(), c, doc.ID, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	printStatus(cmd, view)
	return nil
}
