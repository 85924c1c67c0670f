package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/pdfchat/pkg/controller"
	"github.com/go-go-golems/pdfchat/pkg/ui"
)

func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Start the interactive client (the default)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{InteractiveAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunTUI(cmd)
		},
	}
}

// RunTUI runs the interactive client until the user quits or the process is
// interrupted.
func RunTUI(cmd *cobra.Command) error {
	app, err := AppFrom(cmd)
	if err != nil {
		return err
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("the interactive client needs a terminal; use the upload, ask, status or delete commands instead")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl := controller.New(ctx, app.Client,
		controller.WithBannerDelay(app.Config.BannerDelay),
		controller.WithDedupe(app.Config.Dedupe),
	)
	opts := []ui.Option{ui.WithMarkdownStyle(app.Config.MarkdownStyle)}
	if app.Config.PickerDir != "" {
		dir, err := homedir.Expand(app.Config.PickerDir)
		if err != nil {
			return errors.Wrap(err, "expand picker directory")
		}
		opts = append(opts, ui.WithPickerDirectory(dir))
	}
	model := ui.New(ctrl, opts...)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	log.Info().Str("server_url", app.Client.BaseURL()).Msg("starting interactive client")

	eg := errgroup.Group{}
	eg.Go(func() error {
		defer cancel()
		_, err := p.Run()
		log.Debug().Err(err).Msg("bubbletea program finished")
		// an interrupt cancels ctx, which kills the program
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil
		}
		return errors.Wrap(err, "run interactive client")
	})
	eg.Go(func() error {
		<-ctx.Done()
		p.Quit()
		return nil
	})

	err = eg.Wait()
	log.Info().Msg("interactive client stopped")
	return err
}
