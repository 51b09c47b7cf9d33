package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gridbot/internal/dialogue"
	"gridbot/internal/nlu"
	"gridbot/internal/session"
)

const askChannel = "cli"

type dispatcher interface {
	Dispatch(ctx context.Context, store session.Store, ev dialogue.Event) dialogue.Response
}

func newAskCmd(envFile *string) *cobra.Command {
	var (
		username string
		site     string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one free-text question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(*envFile, os.Stderr)
			if err != nil {
				return err
			}
			store := session.NewMemoryStore()
			if err := store.Set(cmd.Context(), askChannel, presetState(username, site)); err != nil {
				return err
			}
			return ask(cmd.Context(), cmd.OutOrStdout(), a.recognizer, a.dispatcher, store, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username to assume for job and task questions")
	cmd.Flags().StringVar(&site, "site", "", "site to assume for site questions")
	return cmd
}

func presetState(username, site string) session.Update {
	return session.Update{Username: username, UserID: username, Site: site, SiteID: site}
}

func ask(ctx context.Context, w io.Writer, r nlu.Recognizer, d dispatcher, store session.Store, text string) error {
	res, err := r.Recognize(ctx, text)
	if err != nil {
		return err
	}
	resp := d.Dispatch(ctx, store, dialogue.Event{
		SessionID: askChannel,
		Channel:   askChannel,
		Intent:    res.Intent,
		Slots:     res.Slots,
	})
	return writeSpeech(w, resp)
}

// writeSpeech prints the answer, and the prompt when a slot is still needed.
func writeSpeech(w io.Writer, resp dialogue.Response) error {
	if _, err := fmt.Fprintln(w, strings.TrimRight(resp.SpeechText, "\n")); err != nil {
		return err
	}
	if resp.ExpectingSlot != "" && resp.RepromptText != "" && resp.RepromptText != resp.SpeechText {
		_, err := fmt.Fprintln(w, resp.RepromptText)
		return err
	}
	return nil
}
