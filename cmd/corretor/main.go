// Command corretor is the operator CLI for the corretor service: it uploads
// documents, follows their extraction, confirms reviewed results, and
// exports the policy register.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
