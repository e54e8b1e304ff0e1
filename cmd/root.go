// Package cmd contains the gentax CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gentax",
	Short: "GenTax - Indian tax assistant chatbot service",
	Long: `GenTax is a conversational assistant for Indian taxation (Income Tax,
GST and related matters). It serves a REST API backed by a hosted LLM,
augmenting answers with snippets retrieved from a local knowledge base.

Running gentax without a subcommand starts the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
