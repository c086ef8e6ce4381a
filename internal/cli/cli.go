// Package cli implements todoctl, a command-line client for the todo list
// server.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"todolist/backend/internal/api"
	"todolist/backend/internal/client"
)

const (
	defaultServer = "http://localhost:8080"
	serverEnv     = "TODOLIST_SERVER"
	proxyEnv      = "TODOLIST_PROXY"
)

const usage = `usage: todoctl [-server URL] [-proxy URL] <command> [args]

commands:
  list [-since T]                      list entries, or changes since timestamp T
  add -title T [-notes N] [-complete]  create an entry
  set <id> [-title T] [-notes N] [-complete=bool]
  done <id>                            mark an entry complete
  rm <id>...                           delete entries
  clear                                delete completed entries
  watch                                stream updates until interrupted
  import <file.json>                   create entries from a JSON file
`

var errUsage = errors.New("usage")

type command func(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error

var commands = map[string]command{ //nolint:gochecknoglobals
	"list":   runList,
	"add":    runAdd,
	"set":    runSet,
	"done":   runDone,
	"rm":     runRemove,
	"clear":  runClear,
	"watch":  runWatch,
	"import": runImport,
}

// Run executes todoctl with args (without the program name) and returns the
// process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("todoctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	server := fs.String("server", envOr(serverEnv, defaultServer), "server base URL")
	proxy := fs.String("proxy", os.Getenv(proxyEnv), "HTTP or SOCKS5 proxy URL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fail(stderr, "unknown command "+rest[0])
		fs.Usage()
		return 2
	}

	c, err := client.New(*server, client.WithProxy(*proxy))
	if err != nil {
		fail(stderr, err.Error())
		return 1
	}

	if err := cmd(ctx, c, rest[1:], stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fail(stderr, err.Error())
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func subFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func runList(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := subFlags("list")
	since := fs.Float64("since", 0, "timestamp from a previous list")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return errUsage
	}

	var (
		list api.EntryList
		err  error
	)
	if *since > 0 {
		list, err = c.ListModifiedSince(ctx, *since)
	} else {
		list, err = c.List(ctx)
	}
	if err != nil {
		return err
	}
	renderList(stdout, list)
	return nil
}

func runAdd(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := subFlags("add")
	title := fs.String("title", "", "entry title")
	notes := fs.String("notes", "", "entry notes")
	complete := fs.Bool("complete", false, "mark complete")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	// a bare trailing word is taken as the title
	if *title == "" && fs.NArg() > 0 {
		*title = strings.Join(fs.Args(), " ")
	}
	if *title == "" {
		return errUsage
	}

	fields := client.EntryFields{Title: title, Complete: complete}
	if *notes != "" {
		fields.Notes = notes
	}
	entry, err := c.Create(ctx, fields)
	if err != nil {
		return err
	}
	ok(stdout, "added "+renderEntry(entry))
	return nil
}

func runSet(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	fs := subFlags("set")
	title := fs.String("title", "", "entry title")
	notes := fs.String("notes", "", "entry notes; empty clears them")
	complete := fs.Bool("complete", false, "completed flag")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() > 0 {
		return errUsage
	}

	var fields client.EntryFields
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			fields.Title = title
		case "notes":
			fields.Notes = notes
		case "complete":
			fields.Complete = complete
		}
	})
	if fields == (client.EntryFields{}) {
		return errUsage
	}

	entry, err := c.Update(ctx, id, fields)
	if err != nil {
		return err
	}
	ok(stdout, "updated "+renderEntry(entry))
	return nil
}

func runDone(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	complete := true
	entry, err := c.Update(ctx, id, client.EntryFields{Complete: &complete})
	if err != nil {
		return err
	}
	ok(stdout, "done "+renderEntry(entry))
	return nil
}

func runRemove(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	deleted, err := c.DeleteMany(ctx, ids...)
	if err != nil {
		return err
	}
	ok(stdout, fmt.Sprintf("deleted %d of %d", len(deleted), len(ids)))
	return nil
}

func runClear(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	if len(args) != 0 {
		return errUsage
	}
	cleared, err := c.ClearCompleted(ctx)
	if err != nil {
		return err
	}
	ok(stdout, fmt.Sprintf("cleared %d completed", len(cleared)))
	return nil
}

func runWatch(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	if len(args) != 0 {
		return errUsage
	}
	fmt.Fprintln(stdout, mutedStyle.Render("watching for updates, interrupt to stop"))
	return c.Watch(ctx, func(u api.Update) error {
		fmt.Fprintln(stdout, accentStyle.Render(fmt.Sprintf("%s @ %.6f", u.Action, u.Timestamp)))
		for _, e := range u.Entries {
			fmt.Fprintln(stdout, "  "+renderEntry(e))
		}
		return nil
	})
}

func runImport(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	entries, err := ParseImport(data)
	if err != nil {
		return err
	}

	var live []ImportEntry
	for _, e := range entries {
		if !e.Deleted {
			live = append(live, e)
		}
	}
	skipped := len(entries) - len(live)

	for i, e := range live {
		complete := e.Complete
		title := e.Title
		fields := client.EntryFields{Title: &title, Notes: e.Notes, Complete: &complete}
		if _, err := c.Create(ctx, fields); err != nil {
			return fmt.Errorf("imported %d of %d entries, then %q failed: %w", i, len(live), e.Title, err)
		}
	}

	msg := fmt.Sprintf("imported %d entries", len(live))
	if skipped > 0 {
		msg += fmt.Sprintf(", skipped %d deleted", skipped)
	}
	ok(stdout, msg)
	return nil
}
