package cmds

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/pdfchat/pkg/api"
	"github.com/go-go-golems/pdfchat/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the configuration",
		// an invalid configuration must not lock the user out of repairing it
		Annotations: map[string]string{UnvalidatedAnnotation: "true"},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := AppFrom(cmd)
			if err != nil {
				return err
			}
			b, err := app.Config.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use, or where one is looked up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := AppFrom(cmd)
			if err != nil {
				return err
			}
			if used := app.Viper.ConfigFileUsed(); used != "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), used)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "no config file loaded; default location: %s\n",
				config.DefaultConfigFile())
			return err
		},
	}

	edit := &cobra.Command{
		Use:   "edit",
		Short: "Edit the configuration in a form and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := AppFrom(cmd)
			if err != nil {
				return err
			}
			target := config.DefaultConfigFile()
			if used := app.Viper.ConfigFileUsed(); used != "" {
				target = used
			}

			// seed from the file alone, so env and flag values are not written back
			edited, err := config.ReadFile(target)
			if err != nil {
				return err
			}
			ok, err := editConfig(edited)
			if err != nil {
				return err
			}
			if !ok {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Configuration unchanged.")
				return err
			}
			if err := edited.WriteFile(target); err != nil {
				return err
			}
			log.Info().Str("config_path", target).Msg("saved configuration")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", target)
			return err
		},
	}

	cmd.AddCommand(show, path, edit)
	return cmd
}

var markdownStyles = []string{"dark", "light", "notty", "ascii", "dracula", "pink", "tokyo-night"}

// editConfig shows the configuration form. It reports false when the user
// declines to save. It is a variable so tests can fill the form.
var editConfig = func(c *config.Config) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, errors.New("config edit needs a terminal")
	}

	styles := markdownStyles
	if !slices.Contains(styles, c.MarkdownStyle) {
		styles = append([]string{c.MarkdownStyle}, styles...)
	}
	delay := c.BannerDelay.String()
	save := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Value(&c.ServerURL).
				Validate(func(s string) error {
					_, err := api.ParseBaseURL(s)
					return err
				}),
			huh.NewInput().
				Title("Status message delay").
				Description("How long upload and delete results stay visible, e.g. 3s").
				Value(&delay).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err == nil && d <= 0 {
						return errors.New("must be positive")
					}
					return err
				}),
			huh.NewConfirm().
				Title("Ignore repeated upload/delete while one is running?").
				Value(&c.Dedupe),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Markdown style").
				Options(huh.NewOptions(styles...)...).
				Value(&c.MarkdownStyle),
			huh.NewInput().
				Title("File picker directory").
				Description("Leave empty to start in the current directory").
				Value(&c.PickerDir).
				Validate(func(s string) error {
					return config.ValidatePickerDir(strings.TrimSpace(s))
				}),
			huh.NewConfirm().
				Title("Save configuration?").
				Value(&save),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, errors.Wrap(err, "edit config")
	}
	c.PickerDir = strings.TrimSpace(c.PickerDir)
	d, err := time.ParseDuration(delay)
	if err != nil {
		return false, errors.Wrap(err, "parse delay")
	}
	c.BannerDelay = d
	return save, nil
}
