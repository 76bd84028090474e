package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	exportOutput     string
	exportSeguradora string
	exportVigenteDe  string
	exportVigenteAte string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export policy records as a spreadsheet",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default apolices_YYYYMMDD.xlsx)")
	exportCmd.Flags().StringVar(&exportSeguradora, "seguradora", "", "Filter by insurer name")
	exportCmd.Flags().StringVar(&exportVigenteDe, "vigente-de", "", "Policies ending on or after (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportVigenteAte, "vigente-ate", "", "Policies ending on or before (YYYY-MM-DD)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	query := url.Values{}
	for key, v := range map[string]string{
		"seguradora":  exportSeguradora,
		"vigente_de":  exportVigenteDe,
		"vigente_ate": exportVigenteAte,
	} {
		if v != "" {
			query.Set(key, v)
		}
	}

	data, err := apiClient().export(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	out := exportOutput
	if out == "" {
		out = fmt.Sprintf("apolices_%s.xlsx", time.Now().Format("20060102"))
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	cmd.Printf("Wrote %s (%d bytes)\n", out, len(data))
	return nil
}
