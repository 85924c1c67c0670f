package cmds

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/pdfchat/pkg/controller"
)

func NewUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF, replacing the one the server holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := AppFrom(cmd)
			if err != nil {
				return err
			}
			path, err := homedir.Expand(args[0])
			if err != nil {
				return errors.Wrap(err, "expand path")
			}

			resp, err := app.Client.UploadFile(cmd.Context(), path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("upload failed")
				return errors.New(controller.ErrorText(err))
			}
			msg := controller.DefaultUploadedMessage
			if resp.Message != "" {
				msg = resp.Message
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), controller.SuccessText(msg))
			return err
		},
	}
}
