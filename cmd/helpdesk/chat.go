package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/antoniostano/helpdesk/internal/app"
	"github.com/antoniostano/helpdesk/internal/chat"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Report an issue from the terminal",
		Long:  "Runs the intake conversation over stdin/stdout with the configured stores, extractor and webhook.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			built, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer runCleanup(logger, built.Cleanup)

			return runConsole(ctx, built.Chat, os.Stdin, cmd.OutOrStdout())
		},
	}
}

type turnHandler interface {
	Handle(ctx context.Context, req chat.Request) (chat.Response, error)
}

// runConsole drives one session until EOF or "exit". Blank lines are skipped.
func runConsole(ctx context.Context, svc turnHandler, in io.Reader, out io.Writer) error {
	res, err := svc.Handle(ctx, chat.Request{})
	if err != nil {
		return err
	}
	sessionID := res.SessionID
	fmt.Fprintf(out, "assistant> %s\n", res.Reply)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		res, err := svc.Handle(ctx, chat.Request{Message: line, SessionID: sessionID})
		if err != nil {
			if errors.Is(err, chat.ErrEmptyMessage) {
				continue
			}
			return err
		}
		fmt.Fprintf(out, "assistant> %s\n", res.Reply)
	}
}
