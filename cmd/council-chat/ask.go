package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"councilchat/internal/api"
	"councilchat/internal/events"
	"councilchat/internal/export"
	"councilchat/internal/session"
	"councilchat/internal/transcript"
)

const answerWidth = 100

func newAskCommand(a *app) *cobra.Command {
	var conversationID, templateID, format string
	cmd := &cobra.Command{
		Use:   "ask [flags] <question>",
		Short: "Ask the council one question and print the final answer",
		Long: `ask sends one message and follows the council's stages on stderr. Without
--conversation it creates a new conversation, optionally from a prompt template.
The chairman's answer goes to stdout, or the whole conversation when --format
is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return errors.New("question is empty")
			}
			var exporter export.Exporter
			if format != "" {
				var err error
				if exporter, err = export.NewExporter(format); err != nil {
					return err
				}
			}

			logger := a.logger(cmd)
			client := a.client(logger)
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			conv, err := resolveConversation(ctx, client, conversationID, templateID)
			if err != nil {
				return err
			}
			progress := cmd.ErrOrStderr()
			fmt.Fprintf(progress, "conversation %s\n", conv.ID)

			controller := session.NewController(client, logrus.NewEntry(logger))
			tr, err := runTurn(ctx, controller, transcript.New(conv), text, progress)
			if err != nil {
				return err
			}
			if exporter != nil {
				return exporter.Export(export.NewDocument(tr.Conversation), cmd.OutOrStdout())
			}
			return printAnswer(cmd.OutOrStdout(), tr)
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "continue an existing conversation")
	cmd.Flags().StringVarP(&templateID, "template", "t", "", "prompt template for a new conversation")
	cmd.Flags().StringVarP(&format, "format", "f", "", "print the whole conversation as markdown, json or yaml")
	cmd.MarkFlagsMutuallyExclusive("conversation", "template")
	return cmd
}

func resolveConversation(ctx context.Context, client *api.Client, conversationID, templateID string) (transcript.Conversation, error) {
	if conversationID != "" {
		return client.GetConversation(ctx, conversationID)
	}
	req := api.CreateRequest{TemplateID: templateID}
	if templateID != "" && templateID != "blank" {
		prompt, err := client.GetTemplate(ctx, templateID)
		if err != nil {
			return transcript.Conversation{}, err
		}
		req.SystemPrompt = prompt
	}
	return client.CreateConversation(ctx, req)
}

// runTurn streams one message through controller and returns the transcript
// with every update folded in. An error event or a transport failure is
// returned after the stream has ended. A stream that closes without a final
// update was canceled, and ctx's error is returned.
func runTurn(ctx context.Context, controller *session.Controller, tr transcript.Transcript, text string, progress io.Writer) (transcript.Transcript, error) {
	tr, stream := controller.Start(ctx, tr, tr.ID(), text)
	var streamErr error
	finished := false
	for upd := range stream.Updates() {
		var eff session.Effects
		tr, eff = controller.Fold(tr, upd)
		if eff.Err != nil {
			streamErr = eff.Err
		}
		if upd.Final() {
			finished = true
			continue
		}
		reportProgress(progress, upd.Event)
	}
	if streamErr == nil && !finished {
		if err := ctx.Err(); err != nil {
			return tr, fmt.Errorf("council turn interrupted: %w", err)
		}
	}
	return tr, streamErr
}

func reportProgress(w io.Writer, ev events.Event) {
	switch ev.Type {
	case events.Stage1Start:
		fmt.Fprintln(w, "stage 1: collecting individual responses...")
	case events.Stage1Complete:
		if responses, err := transcript.DecodeStage1(ev.Data); err == nil {
			fmt.Fprintf(w, "stage 1: %d responses\n", len(responses))
		}
	case events.Stage2Start:
		fmt.Fprintln(w, "stage 2: peer ranking...")
	case events.Stage2Complete:
		meta, err := transcript.DecodeMetadata(ev.Metadata)
		if err == nil && len(meta.AggregateRankings) > 0 {
			top := meta.AggregateRankings[0]
			fmt.Fprintf(w, "stage 2: top ranked %s (avg %.2f over %d votes)\n", top.Model, top.AverageRank, top.RankingsCount)
		}
	case events.Stage3Start:
		fmt.Fprintln(w, "stage 3: chairman is writing the final answer...")
	case events.TitleComplete:
		fmt.Fprintln(w, "title updated")
	}
}

func printAnswer(w io.Writer, tr transcript.Transcript) error {
	last, ok := tr.Last()
	if !ok || last.Stage3 == nil {
		return errors.New("council finished without a final answer")
	}
	final, err := transcript.DecodeStage3(last.Stage3)
	if err != nil {
		_, err = fmt.Fprintln(w, string(last.Stage3))
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n\n%s\n", headerStyle.Render(final.Model), wordwrap.String(final.Response, answerWidth))
	return err
}
