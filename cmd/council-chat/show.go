package main

import (
	"github.com/spf13/cobra"

	"councilchat/internal/export"
)

func newShowCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Print a conversation as markdown, json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.NewExporter(format)
			if err != nil {
				return err
			}
			client := a.client(a.logger(cmd))
			conv, err := client.GetConversation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return exporter.Export(export.NewDocument(conv), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown, json or yaml")
	return cmd
}
