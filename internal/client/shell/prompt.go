package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bugboard/bugboard/internal/client/controller"
	"github.com/bugboard/bugboard/internal/models"
)

// Prompter asks questions on out and reads one answer line per question.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter returns a prompter reading from in.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Line reads the next input line. ok is false at end of input.
func (p *Prompter) Line() (line string, ok bool) {
	if !p.scanner.Scan() {
		return "", false
	}
	return p.scanner.Text(), true
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, ok := p.Line()
	if !ok {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(line), nil
}

// PromptForIssue reads the fields of a new issue. Enum answers accept both
// constant names and labels; an empty answer leaves the field unset so the
// controller reports it.
func (p *Prompter) PromptForIssue() (controller.IssueInput, error) {
	var in controller.IssueInput
	var err error
	if in.Title, err = p.Ask("Title: "); err != nil {
		return in, err
	}
	if in.Description, err = p.Ask("Description: "); err != nil {
		return in, err
	}

	answer, err := p.Ask(fmt.Sprintf("Type (%s): ", joinLabels(models.IssueTypes())))
	if err != nil {
		return in, err
	}
	if answer != "" {
		if in.Type, err = models.ParseIssueType(answer); err != nil {
			return in, err
		}
	}

	if answer, err = p.Ask(fmt.Sprintf("Priority (%s): ", joinLabels(models.Priorities()))); err != nil {
		return in, err
	}
	if answer != "" {
		if in.Priority, err = models.ParsePriority(answer); err != nil {
			return in, err
		}
	}

	if answer, err = p.Ask(fmt.Sprintf("State (%s) [%s]: ", joinLabels(models.IssueStates()), models.StateTodo.Label())); err != nil {
		return in, err
	}
	in.State = models.StateTodo
	if answer != "" {
		if in.State, err = models.ParseIssueState(answer); err != nil {
			return in, err
		}
	}

	if in.ImagePath, err = p.Ask("Image file (leave empty for none): "); err != nil {
		return in, err
	}
	return in, nil
}

// PromptForUser reads the fields of a new account.
func (p *Prompter) PromptForUser() (controller.UserInput, error) {
	var in controller.UserInput
	var err error
	if in.Email, err = p.Ask("Email: "); err != nil {
		return in, err
	}
	if in.Password, err = p.Ask("Password: "); err != nil {
		return in, err
	}
	answer, err := p.Ask(fmt.Sprintf("Role (%s/%s) [%s]: ", models.RoleUser, models.RoleAdmin, models.RoleUser))
	if err != nil {
		return in, err
	}
	in.Role = models.RoleUser
	if answer != "" {
		if in.Role, err = models.ParseRole(answer); err != nil {
			return in, err
		}
	}
	return in, nil
}

func joinLabels[T interface{ Label() string }](values []T) string {
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = v.Label()
	}
	return strings.Join(labels, "/")
}
