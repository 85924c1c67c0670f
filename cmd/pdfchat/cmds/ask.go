package cmds

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/pdfchat/pkg/controller"
)

func NewAskCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a question about the uploaded PDF",
		Long:  "Ask a question about the uploaded PDF. Without arguments the question is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := AppFrom(cmd)
			if err != nil {
				return err
			}

			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "read question")
				}
				question = strings.TrimSpace(string(b))
			}
			if question == "" {
				return errors.New("no question given")
			}

			resp, err := app.Client.Chat(cmd.Context(), question)
			if err != nil {
				log.Error().Err(err).Msg("chat request failed")
				return errors.New(controller.ErrorText(err))
			}
			answer := controller.DefaultAnswer
			if resp.Answer != "" {
				answer = resp.Answer
			}

			out := cmd.OutOrStdout()
			if !raw && isTerminal(out) {
				rendered, err := renderMarkdown(answer, app.Config.MarkdownStyle)
				if err == nil {
					_, err = fmt.Fprint(out, rendered)
					return err
				}
				log.Debug().Err(err).Msg("markdown rendering unavailable, printing raw answer")
			}
			_, err = fmt.Fprintln(out, answer)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the answer without markdown rendering")
	return cmd
}

func renderMarkdown(text, style string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", errors.Wrap(err, "create markdown renderer")
	}
	return r.Render(text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
