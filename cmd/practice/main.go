package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/nexlearn/exam-engine/internal/database"
	"github.com/nexlearn/exam-engine/internal/examsession"
	"github.com/nexlearn/exam-engine/internal/history"
	"github.com/nexlearn/exam-engine/internal/logger"
	"github.com/nexlearn/exam-engine/internal/questionfile"
	"github.com/nexlearn/exam-engine/internal/questionsource"
	"github.com/nexlearn/exam-engine/internal/tui"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	var (
		file        string
		server      string
		token       string
		path        string
		historyPath string
		logFile     string
		logLevel    string
		plain       bool
		noColor     bool
		list        int
	)
	flag.StringVar(&file, "file", "", "Question set file (.yaml or .json)")
	flag.StringVar(&server, "server", "", "Base URL of a server publishing question sets")
	flag.StringVar(&token, "token", os.Getenv("EXAM_TOKEN"), "Session token for -server (default $EXAM_TOKEN)")
	flag.StringVar(&path, "path", questionsource.DefaultPath, "Endpoint under -server that serves the set with its answer key")
	flag.StringVar(&historyPath, "history", "practice.db", "SQLite file for finished attempts")
	flag.StringVar(&logFile, "log-file", "practice.log", "Log file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level")
	flag.BoolVar(&plain, "plain", false, "Read commands from stdin instead of the full screen UI")
	flag.BoolVar(&noColor, "no-color", false, "Disable colours")
	flag.IntVar(&list, "list", 0, "Print the last N attempts and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := !plain && term.IsTerminal(int(os.Stdout.Fd()))
	var logOut io.Writer = os.Stderr
	if interactive {
		logOut = io.Discard
	}
	log := logger.New(logger.Options{Level: logLevel, Format: "pretty", File: logFile, Out: logOut})

	db, err := database.OpenSQLite(ctx, historyPath, log)
	if err != nil {
		fatal(err)
	}
	defer db.Close()
	store, err := history.New(ctx, db)
	if err != nil {
		fatal(err)
	}

	if list > 0 {
		if err := printHistory(ctx, store, list); err != nil {
			fatal(err)
		}
		return
	}

	var source examsession.QuestionSource
	switch {
	case file != "":
		source = questionfile.Source{Path: file}
	case server != "":
		source = questionsource.New(server, questionsource.WithPath(path))
	default:
		printUsage()
		os.Exit(2)
	}

	set, err := source.LoadQuestions(ctx, token)
	if err != nil {
		fatal(err)
	}
	session, err := examsession.New(set)
	if err != nil {
		fatal(err)
	}

	id := uuid.NewString()
	sink := store.Sink(set.Title)
	log.Info().
		Str("session_id", id).
		Str("set_id", set.SetID).
		Int("questions", session.Len()).
		Bool("interactive", interactive).
		Msg("Practice session starting")

	var res *examsession.Result
	if interactive {
		res, err = runInteractive(ctx, session, sink, id, set.Title, noColor)
	} else {
		res, err = runPlain(ctx, session, sink, id, log)
	}
	switch {
	case errors.Is(err, examsession.ErrSessionClosed):
		fmt.Println("Session abandoned, nothing saved.")
		os.Exit(1)
	case err != nil:
		fatal(err)
	case res == nil:
		fmt.Println("Session abandoned, nothing saved.")
		os.Exit(1)
	}
	fmt.Printf("Marks %.2f / %d (correct %d, incorrect %d, not attended %d)\n",
		res.Score, res.TotalQuestions, res.Correct, res.Incorrect, res.NotAttempted)
}

func runInteractive(ctx context.Context, session *examsession.Session, sink examsession.SubmissionSink, id, title string, noColor bool) (*examsession.Result, error) {
	m := tui.NewModel(session, examsession.NewTimer(), sink, tui.Options{
		NoColor:   noColor,
		Title:     title,
		SessionID: id,
	})
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(tui.Model)
	if !ok {
		return nil, nil
	}
	if err := fm.SaveErr(); err != nil {
		return fm.Result(), fmt.Errorf("save attempt: %w", err)
	}
	return fm.Result(), nil
}

func runPlain(ctx context.Context, session *examsession.Session, sink examsession.SubmissionSink, id string, log zerolog.Logger) (*examsession.Result, error) {
	res, err := tui.RunScript(ctx, os.Stdin, os.Stdout, func(observe func(examsession.Update)) *examsession.Runner {
		return examsession.NewRunner(id, session, examsession.NewTimer(), sink,
			examsession.WithLogger(log),
			examsession.WithObserver(observe),
		)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func printHistory(ctx context.Context, store *history.Store, limit int) error {
	entries, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBMITTED\tTITLE\tSCORE\tCORRECT\tINCORRECT\tNOT ATTENDED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%d\t%d\n",
			e.SubmittedAt.Local().Format(time.DateTime), e.Title,
			e.Result.Score, e.Result.Correct, e.Result.Incorrect, e.Result.NotAttempted)
	}
	return w.Flush()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "practice: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: practice -file <set.yaml> | -server <url> -token <token>")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
