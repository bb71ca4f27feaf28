package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"councilchat/internal/api"
	"councilchat/internal/transcript"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#01cdfe"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3d8"))
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client(a.logger(cmd))
			convs, err := client.ListConversations(cmd.Context())
			if err != nil {
				return err
			}
			return printConversations(cmd.OutOrStdout(), convs)
		},
	}
}

func printConversations(w io.Writer, convs []transcript.Summary) error {
	if len(convs) == 0 {
		_, err := fmt.Fprintln(w, "No conversations.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("CREATED")+"\t"+headerStyle.Render("MESSAGES")+"\t"+headerStyle.Render("TITLE"))
	for _, c := range convs {
		created := "-"
		if !c.CreatedAt.IsZero() {
			created = c.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		title := c.Title
		if title == "" {
			title = "New Conversation"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", idStyle.Render(c.ID), created, c.MessageCount, title)
	}
	return tw.Flush()
}

func newTemplatesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates [id]",
		Short: "List prompt templates, or print one template's system prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client(a.logger(cmd))
			if len(args) == 1 {
				prompt, err := client.GetTemplate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
				return err
			}
			templates, err := client.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			return printTemplates(cmd.OutOrStdout(), templates)
		},
	}
}

func printTemplates(w io.Writer, templates []api.Template) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("NAME")+"\t"+headerStyle.Render("DESCRIPTION"))
	for _, t := range templates {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", idStyle.Render(t.ID), t.Name, t.Description)
	}
	return tw.Flush()
}

func newStartersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "starters [id]",
		Short: "List starter questions, or print one question's full text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client(a.logger(cmd))
			if len(args) == 1 {
				prompt, err := client.GetStarterQuestion(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
				return err
			}
			starters, err := client.ListStarterQuestions(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("SEVERITY")+"\t"+headerStyle.Render("DOMAIN")+"\t"+headerStyle.Render("TEMPLATE")+"\t"+headerStyle.Render("TITLE"))
			for _, q := range starters {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", idStyle.Render(q.ID), q.Severity, q.Domain, q.TemplateID, q.Title)
			}
			return tw.Flush()
		},
	}
}
