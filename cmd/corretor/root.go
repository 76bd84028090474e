package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	envServer     = "CORRETOR_SERVER"
	defaultServer = "http://localhost:8080/api"
)

var (
	serverURL      string
	requestTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "corretor",
	Short:         "Operate the corretor document pipeline",
	Long:          `Upload insurance documents, follow their extraction, confirm reviewed results, and export the policy register.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	server := os.Getenv(envServer)
	if server == "" {
		server = defaultServer
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", server, "API base URL (env "+envServer+")")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 2*time.Minute, "Per-request timeout")
}

func apiClient() *client {
	return newClient(serverURL, requestTimeout)
}
