package cli

import (
	"fmt"
	"io"
	"os"

	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/parser"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// NewParseCmd previews how pasted question text will be split into
// questions, reading a file argument or stdin.
func NewParseCmd() *cobra.Command {
	var (
		noColor bool
		plain   bool
	)
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Preview the questions found in pasted quiz text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			questions := parser.Parse(string(data))
			if len(questions) == 0 {
				return domain.ErrNoQuestions
			}
			out := cmd.OutOrStdout()
			if plain {
				_, err = io.WriteString(out, parser.Format(questions))
				return err
			}
			_, err = io.WriteString(out, renderQuestions(questions, noColor))
			return err
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable styling")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the normalized text form")
	return cmd
}

func renderQuestions(questions []domain.Question, noColor bool) string {
	var out string
	for i, q := range questions {
		out += stylize(promptStyle, fmt.Sprintf("%d. %s", i+1, q.Prompt), noColor) + "\n"
		for j, opt := range q.Options {
			out += "   " + stylize(optionStyle, fmt.Sprintf("%s) %s", parser.OptionLetter(j), opt), noColor) + "\n"
		}
	}
	out += stylize(dimStyle, fmt.Sprintf("%d questions found", len(questions)), noColor) + "\n"
	return out
}

func stylize(style lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return style.Render(text)
}
