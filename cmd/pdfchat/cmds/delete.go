package cmds

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/pdfchat/pkg/controller"
)

// confirmDelete asks before deleting. It is a variable so tests can answer.
var confirmDelete = func() (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return true, nil
	}
	ok := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete the PDF stored on the server?").
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	).WithTheme(huh.ThemeCharm())
	if err := form.Run(); err != nil {
		return false, errors.Wrap(err, "confirm delete")
	}
	return ok, nil
}

func NewDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the PDF stored on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := AppFrom(cmd)
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirmDelete()
				if err != nil {
					return err
				}
				if !ok {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted.")
					return err
				}
			}

			resp, err := app.Client.DeletePDF(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("delete failed")
				return errors.New(controller.ErrorText(err))
			}
			msg := controller.DefaultDeletedMessage
			if resp.Message != "" {
				msg = resp.Message
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), controller.SuccessText(msg))
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
