package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/middleware"
	"github.com/sweetpotato0/voyager/runner"
)

var (
	conversationID string
	scriptPath     string

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Plan a trip interactively on the terminal",
		RunE:  runChat,
	}
)

func init() {
	chatCmd.Flags().StringVar(&conversationID, "conversation", "", "resume a stored conversation")
	chatCmd.Flags().StringVar(&scriptPath, "script", "", "replay utterances from a file, one per line")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()
	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	}
	return chatLoop(ctx, a.runner, conversationID, in, out, scriptPath == "")
}

// chatLoop reads one utterance per line and prints the assistant replies
// until the input ends or the user types exit.
func chatLoop(ctx context.Context, r *runner.Runner, id string, in io.Reader, out io.Writer, interactive bool) error {
	fmt.Fprintln(out, "--- Voyager Travel Planner ---")
	fmt.Fprintln(out, "System ready. Type 'exit' to quit.")

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "\nYou: ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if !interactive {
			fmt.Fprintf(out, "\nYou: %s\n", line)
		}

		resp, err := r.Run(ctx, id, line)
		if resp != nil {
			id = resp.ConversationID
			fmt.Fprintf(out, "\nAssistant: %s\n", resp.Reply())
		}
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, middleware.ErrRateLimitExceeded):
			fmt.Fprintln(out, "\nAssistant: You're sending messages quickly. Please wait a moment.")
		case errors.Is(err, errorspkg.ErrInvalidInput):
			fmt.Fprintf(out, "\nError: %v\n", err)
		case resp == nil:
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}
