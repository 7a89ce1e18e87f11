package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func summarizeCmd(flags *rootFlags) *cobra.Command {
	var text, apiKey string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a repository description",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, os.Stderr)
			if err != nil {
				return err
			}
			// read after config load so .env is honored
			if apiKey == "" {
				apiKey = os.Getenv("LLM_API_KEY")
			}
			if apiKey == "" {
				return fmt.Errorf("no API key: pass --api-key or set LLM_API_KEY")
			}

			summary, err := a.llm.Summarize(a.logger.WithContext(cmd.Context()), apiKey, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Description to summarize")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "LLM provider API key (default $LLM_API_KEY)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
