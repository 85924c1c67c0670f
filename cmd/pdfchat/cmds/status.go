package cmds

import (
	"context"

	"github.com/go-go-golems/glazed/pkg/cli"
	glazed_cmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/sources"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/pdfchat/pkg/api"
	"github.com/go-go-golems/pdfchat/pkg/controller"
)

// StatusCommand reports whether the server holds a PDF as a single row.
type StatusCommand struct {
	*glazed_cmds.CommandDescription
}

var _ glazed_cmds.GlazeCommand = &StatusCommand{}

func NewStatusCommand() (*StatusCommand, error) {
	glazedSection, err := settings.NewGlazedSection()
	if err != nil {
		return nil, err
	}

	desc := glazed_cmds.NewCommandDescription(
		"status",
		glazed_cmds.WithShort("Show whether the server holds a PDF"),
		glazed_cmds.WithLong("Ask the server for its PDF status and print one row with the status, "+
			"the file name and whether a PDF is uploaded. Use --output to pick the format."),
		glazed_cmds.WithSections(glazedSection),
	)
	return &StatusCommand{CommandDescription: desc}, nil
}

func (c *StatusCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	_ *values.Values,
	gp middlewares.Processor,
) error {
	app, err := activeApp()
	if err != nil {
		return err
	}
	row, err := statusRow(ctx, app.Client)
	if err != nil {
		return err
	}
	return gp.AddRow(ctx, row)
}

type statusClient interface {
	Status(ctx context.Context) (*api.StatusResponse, error)
}

// statusRow fetches the server status. The filename column is empty unless a
// PDF is uploaded.
func statusRow(ctx context.Context, client statusClient) (types.Row, error) {
	resp, err := client.Status(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("status check failed")
		return nil, errors.New(controller.StatusErrorText(err))
	}
	filename := ""
	if resp.Uploaded() {
		filename = resp.Filename
	}
	return types.NewRow(
		types.MRP("status", resp.Status),
		types.MRP("filename", filename),
		types.MRP("uploaded", resp.Uploaded()),
	), nil
}

func newStatusCobraCommand() (*cobra.Command, error) {
	statusCmd, err := NewStatusCommand()
	if err != nil {
		return nil, err
	}
	return cli.BuildCobraCommand(statusCmd, cli.WithCobraMiddlewaresFunc(glazedMiddlewares))
}

func glazedMiddlewares(
	_ *values.Values,
	cmd *cobra.Command,
	args []string,
) ([]sources.Middleware, error) {
	return []sources.Middleware{
		sources.FromCobra(cmd),
		sources.FromArgs(args),
		sources.FromEnv("PDFCHAT",
			fields.WithSource("env"),
		),
		sources.FromDefaults(),
	}, nil
}
