package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "academy",
	Short: "Course platform identity service",
	Long:  `The identity service of the course platform: registration, email verification, sessions, password flows and user profiles over HTTP, with a gRPC health endpoint.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
