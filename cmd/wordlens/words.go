package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordlens/pkg/coordinator"
	"github.com/japaniel/wordlens/pkg/vocab"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <selection>",
		Short: "Translate a word and add it to the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord := coordinator.New(a.store, a.translator(), nil, coordinator.Options{BadgeDuration: a.cfg.Badge.Duration})
			defer coord.Badge().Stop()

			out, err := coord.OnMenuClick(cmd.Context(), coordinator.MenuClick{
				MenuItemID:    coordinator.MenuItemID,
				SelectionText: args[0],
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch out.Status {
			case coordinator.StatusIgnored:
				fmt.Fprintf(w, "Ignored %q: not a single English word.\n", args[0])
			case coordinator.StatusExists:
				fmt.Fprintf(w, "%s is already in the list.\n", out.Word)
			case coordinator.StatusAdded:
				fmt.Fprintf(w, "Added %s: %s\n", out.Word, describe(*out.Entry))
			}
			return nil
		},
	}
}

func describe(e vocab.Entry) string {
	if e.PartOfSpeech == "" {
		return e.Translation
	}
	return e.PartOfSpeech + " " + e.Translation
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned words, most often met first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(v) == 0 {
				fmt.Fprintln(w, "No words yet.")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WORD\tPOS\tTRANSLATION\tCOUNT")
			for _, it := range v.Sorted() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", it.Word, it.PartOfSpeech, it.Translation, it.Count)
			}
			return tw.Flush()
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <word>",
		Aliases: []string{"rm"},
		Short:   "Remove a word from the list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word := strings.ToLower(strings.TrimSpace(args[0]))
			_, err := a.store.Delete(cmd.Context(), word)
			if errors.Is(err, vocab.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not in the list.\n", word)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", word)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every word",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Clear the whole word list? [y/N] ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			if err := a.store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Word list cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
