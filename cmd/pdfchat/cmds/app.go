package cmds

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/pdfchat/pkg/api"
	"github.com/go-go-golems/pdfchat/pkg/config"
	"github.com/go-go-golems/pdfchat/pkg/logging"
)

const (
	// InteractiveAnnotation marks commands that take over the terminal.
	// Their logs go to a file.
	InteractiveAnnotation = "pdfchat/interactive"
	// UnvalidatedAnnotation marks command trees that must run even when the
	// configuration is invalid, so that it can be inspected and repaired.
	// They get no API client.
	UnvalidatedAnnotation = "pdfchat/unvalidated"
)

// App is what every command needs once flags are parsed.
type App struct {
	Config *config.Config
	Client *api.Client
	Viper  *viper.Viper
}

type appKey struct{}

// active is the App of the running command, for glazed commands which do
// not see the cobra context.
var active *App

// Setup initializes logging, loads the configuration and builds the API
// client for cmd. It runs as the root's PersistentPreRunE.
func Setup(cmd *cobra.Command) error {
	v := viper.GetViper()
	// clay binds the root's persistent flags; bind the flags of cmd as well
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	if err := logging.Init(cmd.Annotations[InteractiveAnnotation] == "true"); err != nil {
		return errors.Wrap(err, "init logger")
	}

	app := &App{Viper: v}
	if hasAnnotation(cmd, UnvalidatedAnnotation) {
		app.Config = config.FromViper(v)
	} else {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		client, err := api.NewClient(api.WithBaseURL(cfg.ServerURL))
		if err != nil {
			return errors.Wrap(err, "create api client")
		}
		app.Config, app.Client = cfg, client
	}

	log.Debug().
		Str("command", cmd.CommandPath()).
		Str("server_url", app.Config.ServerURL).
		Str("config_file", v.ConfigFileUsed()).
		Str("log_file", v.GetString(logging.KeyLogFile)).
		Msg("pdfchat configured")

	active = app
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, app))
	return nil
}

// AppFrom returns the App that Setup attached to cmd.
func AppFrom(cmd *cobra.Command) (*App, error) {
	if ctx := cmd.Context(); ctx != nil {
		if app, ok := ctx.Value(appKey{}).(*App); ok {
			return app, nil
		}
	}
	return nil, errors.Errorf("%s: command was not set up", cmd.CommandPath())
}

func activeApp() (*App, error) {
	if active == nil || active.Client == nil {
		return nil, errors.New("command was not set up")
	}
	return active, nil
}

// hasAnnotation reports whether cmd or one of its parents carries key.
func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[key] == "true" {
			return true
		}
	}
	return false
}
