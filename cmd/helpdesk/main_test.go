package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/helpdesk/internal/chat"
	"github.com/antoniostano/helpdesk/internal/complaint"
	"github.com/antoniostano/helpdesk/internal/completion"
	"github.com/antoniostano/helpdesk/internal/extract"
	"github.com/antoniostano/helpdesk/internal/intake"
	"github.com/antoniostano/helpdesk/internal/session"
)

func TestRunConsoleCompletesReport(t *testing.T) {
	store := complaint.NewInMemoryStore()
	machine := intake.NewMachine(extract.NewPassthrough(), completion.NewSink(store, nil, nil, nil), nil)
	svc := chat.NewService(session.NewManager(time.Hour, nil), machine, nil, nil)

	in := strings.NewReader("streetlight out\n\nPark Avenue\nlamp flickering all night\nMeera\n9123456780\nyes\n")
	var out bytes.Buffer
	if err := runConsole(context.Background(), svc, in, &out); err != nil {
		t.Fatalf("runConsole() error = %v", err)
	}

	transcript := out.String()
	if !strings.HasPrefix(transcript, "assistant> "+intake.Greeting) {
		t.Fatalf("transcript does not start with greeting: %q", transcript)
	}
	if !strings.Contains(transcript, "successfully registered") {
		t.Fatalf("transcript missing success reply: %q", transcript)
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].IssueType != "Streetlight" || records[0].Name != "Meera" {
		t.Fatalf("record = %+v", records[0])
	}
}

func TestRunConsoleStopsOnExit(t *testing.T) {
	machine := intake.NewMachine(extract.NewPassthrough(), nil, nil)
	svc := chat.NewService(session.NewManager(time.Hour, nil), machine, nil, nil)

	var out bytes.Buffer
	if err := runConsole(context.Background(), svc, strings.NewReader("exit\nroad\n"), &out); err != nil {
		t.Fatalf("runConsole() error = %v", err)
	}
	if strings.Contains(out.String(), "Got it!") {
		t.Fatalf("input after exit was processed: %q", out.String())
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "chat"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
}

func TestRunCleanupLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	runCleanup(logger, func() error { return errors.New("etcd close: connection reset") })
	if !strings.Contains(buf.String(), "cleanup failed") || !strings.Contains(buf.String(), "connection reset") {
		t.Fatalf("log = %q, want cleanup failure with cause", buf.String())
	}

	buf.Reset()
	runCleanup(logger, func() error { return nil })
	runCleanup(logger, nil)
	if buf.Len() != 0 {
		t.Fatalf("log = %q, want nothing on success", buf.String())
	}
}
