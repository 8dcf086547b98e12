// Package shell implements the interactive command loop of the tracker
// client.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bugboard/bugboard/internal/client/app"
	"github.com/bugboard/bugboard/internal/client/controller"
	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/client/store"
	"github.com/bugboard/bugboard/internal/models"
)

const promptText = "bugboard> "

const helpText = `Available commands:
  login <email> [password]   sign in
  logout                     sign out
  whoami                     show the signed-in user
  issues [filters] [text]    list issues; filters: type=, priority=, state=
  refresh                    reload issues from the server
  show <id>                  show an issue with its comments
  new-issue                  open a new issue
  comments <id>              list the comments of an issue
  comment <id> <text>        add a comment to an issue
  image <ref> <file>         download an issue image into file
  users                      list accounts (administrators)
  new-user                   create an account (administrators)
  exists <email>             check whether an account exists
  exit                       quit`

var (
	// ErrUsage is returned for malformed command arguments.
	ErrUsage = errors.New("usage")
	// ErrNoResult is returned when an operation was superseded or the
	// client stopped before it reported an outcome.
	ErrNoResult = errors.New("operation finished without a result")
)

// Shell reads commands and drives the client controllers.
type Shell struct {
	app    *app.App
	prompt *Prompter
	out    io.Writer
}

// New returns a shell over a that reads commands from in.
func New(a *app.App, in io.Reader, out io.Writer) *Shell {
	return &Shell{app: a, prompt: NewPrompter(in, out), out: out}
}

// Run reads and executes commands until "exit", end of input or ctx is
// done. Command errors are printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(s.out, promptText)
		line, ok := s.prompt.Line()
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		quit, err := s.Exec(ctx, args)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
	}
}

// Exec runs one command. quit is true for "exit".
func (s *Shell) Exec(ctx context.Context, args []string) (quit bool, err error) {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "login":
		return false, s.login(ctx, args[1:])
	case "logout":
		s.app.Auth.Logout()
		fmt.Fprintln(s.out, "Logged out")
	case "whoami":
		s.whoami()
	case "issues":
		s.listIssues(args[1:])
	case "refresh":
		s.app.Issues.Refresh()
		s.app.Loop.Wait()
		fmt.Fprintf(s.out, "%d issues\n", s.app.Store.Issues.Len())
	case "show":
		return false, s.show(args[1:])
	case "new-issue":
		return false, s.newIssue()
	case "comments":
		id, err := issueID(args[1:], "comments <id>")
		if err != nil {
			return false, err
		}
		return false, s.printComments(id)
	case "comment":
		return false, s.addComment(args[1:])
	case "image":
		return false, s.image(args[1:])
	case "users":
		s.listUsers()
	case "new-user":
		return false, s.newUser()
	case "exists":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: exists <email>", ErrUsage)
		}
		ok, err := s.app.Users.ExistsUser(ctx, args[1])
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, ok)
	case "exit", "quit":
		return true, nil
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return false, nil
}

func (s *Shell) login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: login <email> [password]", ErrUsage)
	}
	password := ""
	if len(args) == 2 {
		password = args[1]
	} else {
		var err error
		if password, err = s.prompt.Ask("Password: "); err != nil {
			return err
		}
	}
	if !s.app.Auth.Login(ctx, args[0], password) {
		fmt.Fprintln(s.out, "Login failed")
		return nil
	}
	s.app.Loop.Wait()
	s.whoami()
	return nil
}

func (s *Shell) whoami() {
	u, ok := s.app.Session.User()
	if !ok {
		fmt.Fprintln(s.out, "Not logged in")
		return
	}
	fmt.Fprintf(s.out, "%s (%s)\n", u.Username, u.Role)
}

func (s *Shell) listIssues(args []string) {
	var f store.IssueFilter
	var words []string
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			words = append(words, a)
			continue
		}
		var err error
		switch key {
		case "type":
			f.Type, err = models.ParseIssueType(value)
		case "priority":
			f.Priority, err = models.ParsePriority(value)
		case "state":
			f.State, err = models.ParseIssueState(value)
		default:
			words = append(words, a)
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
	}
	f.Search = strings.Join(words, " ")
	s.printIssues(s.app.Issues.Filter(f))
}

func (s *Shell) printIssues(list []models.Issue) {
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No issues")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tPRIORITY\tSTATE\tTITLE")
	for _, is := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", idString(is.ID), is.Type.Label(), is.Priority.Label(), is.State.Label(), is.Title)
	}
	_ = tw.Flush()
}

func (s *Shell) show(args []string) error {
	id, err := issueID(args, "show <id>")
	if err != nil {
		return err
	}
	is, ok := s.app.Store.Issues.Get(id)
	if !ok {
		return fmt.Errorf("issue %d not found", id)
	}
	fmt.Fprintf(s.out, "#%d %s\n", id, is.Title)
	fmt.Fprintf(s.out, "%s | %s | %s\n", is.Type.Label(), is.Priority.Label(), is.State.Label())
	if is.Reporter != nil {
		fmt.Fprintf(s.out, "Reported by %s\n", is.Reporter.Username)
	}
	if is.ImagePath != "" {
		fmt.Fprintf(s.out, "Image: %s\n", is.ImagePath)
	}
	fmt.Fprintf(s.out, "\n%s\n\n", is.Description)
	return s.printComments(id)
}

func (s *Shell) printComments(id int) error {
	list, err := await(s.app.Loop, func(cb controller.Callbacks[[]models.Comment]) error {
		return s.app.Comments.Load(id, cb)
	})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No comments")
		return nil
	}
	for _, c := range list {
		author := "unknown"
		if c.Author != nil {
			author = c.Author.Username
		}
		when := ""
		if !c.Timestamp.IsZero() {
			when = c.Timestamp.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(s.out, "[%s] %s: %s\n", when, author, c.Content)
	}
	return nil
}

func (s *Shell) addComment(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: comment <id> <text>", ErrUsage)
	}
	id, err := issueID(args[:1], "comment <id> <text>")
	if err != nil {
		return err
	}
	content := strings.Join(args[1:], " ")
	if _, err := await(s.app.Loop, func(cb controller.Callbacks[models.Comment]) error {
		return s.app.Comments.Add(id, content, cb)
	}); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Comment added")
	return nil
}

func (s *Shell) newIssue() error {
	in, err := s.prompt.PromptForIssue()
	if err != nil {
		return err
	}
	created, err := await(s.app.Loop, func(cb controller.Callbacks[models.Issue]) error {
		return s.app.Issues.Create(in, cb)
	})
	if created.ID != nil {
		fmt.Fprintf(s.out, "Issue #%d created\n", *created.ID)
	}
	return err
}

func (s *Shell) image(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: image <ref> <file>", ErrUsage)
	}
	data, err := await(s.app.Loop, func(cb controller.Callbacks[[]byte]) error {
		return s.app.Issues.LoadImage(args[0], cb)
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", args[1], err)
	}
	fmt.Fprintf(s.out, "Saved %d bytes to %s\n", len(data), args[1])
	return nil
}

func (s *Shell) listUsers() {
	s.app.Users.Refresh()
	s.app.Loop.Wait()
	users := s.app.Store.Users.Snapshot()
	if len(users) == 0 {
		fmt.Fprintln(s.out, "No users")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", idString(u.ID), u.Username, u.Role)
	}
	_ = tw.Flush()
}

func (s *Shell) newUser() error {
	in, err := s.prompt.PromptForUser()
	if err != nil {
		return err
	}
	created, err := await(s.app.Loop, func(cb controller.Callbacks[models.User]) error {
		return s.app.Users.Create(in, cb)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "User %s created\n", created.Username)
	return nil
}

type result[T any] struct {
	v   T
	err error
}

// await starts an operation and blocks until its background work and
// callbacks are done. When the operation reports success followed by a
// secondary failure, both the value and the failure are returned.
func await[T any](loop *dispatch.Loop, start func(controller.Callbacks[T]) error) (T, error) {
	var zero T
	ch := make(chan result[T], 2)
	err := start(controller.Callbacks[T]{
		OnSuccess: func(v T) { ch <- result[T]{v: v} },
		OnFailure: func(err error) { ch <- result[T]{err: err} },
	})
	if err != nil {
		return zero, err
	}
	loop.Wait()

	var out []result[T]
	for len(ch) > 0 {
		out = append(out, <-ch)
	}
	switch {
	case len(out) == 0:
		return zero, ErrNoResult
	case len(out) > 1 && out[0].err == nil:
		return out[0].v, out[1].err
	default:
		return out[0].v, out[0].err
	}
}

func issueID(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s", ErrUsage, usage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid issue id %q", args[0])
	}
	return id, nil
}

func idString(id *int) string {
	if id == nil {
		return "-"
	}
	return strconv.Itoa(*id)
}
