package deletion

//go:generate mockgen -source=confirmer.go -destination=mocks/mock_confirmer.go -package=mocks

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Confirmer decides whether the deletion described by summary may proceed.
type Confirmer interface {
	Confirm(summary string) (bool, error)
}

// ForcedConfirmer agrees to every deletion.
type ForcedConfirmer struct{}

func (ForcedConfirmer) Confirm(string) (bool, error) {
	return true, nil
}

// PromptConfirmer asks the operator on a terminal.
// Only y and n are accepted, anything else prompts again. End of input is a refusal.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (confirmer *PromptConfirmer) Confirm(summary string) (bool, error) {
	fmt.Fprintf(confirmer.out, "Warning: the following keys will now be deleted:\n%s\n", summary)
	for {
		fmt.Fprint(confirmer.out, "Are you sure you want to continue (there is no way back)? y/n: ")
		line, err := confirmer.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, errors.Wrap(err, "failed to read confirmation")
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y":
			return true, nil
		case "n":
			fmt.Fprintln(confirmer.out, "Deletion refused, nothing was deleted")
			return false, nil
		}
		if err == io.EOF {
			fmt.Fprintln(confirmer.out)
			return false, nil
		}
		fmt.Fprintf(confirmer.out, "Unrecognized option '%s', please answer y or n\n", answer)
	}
}
