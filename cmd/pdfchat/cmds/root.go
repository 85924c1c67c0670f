package cmds

import (
	clay "github.com/go-go-golems/clay/pkg"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/pdfchat/pkg/config"
)

// NewRootCommand builds the pdfchat command tree. Without a subcommand it
// starts the interactive client.
func NewRootCommand() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:   "pdfchat",
		Short: "pdfchat lets you upload a PDF and ask questions about it",
		Long: "pdfchat is a terminal client for a PDF chat server. Without a subcommand it starts " +
			"the interactive client; the subcommands run a single request.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{InteractiveAnnotation: "true"},
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// reinitialize the logger because we can now parse --log-level and co
			return Setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunTUI(cmd)
		},
	}
	config.AddFlags(root)
	// registers the logging flags, the config file lookup and PDFCHAT_ env binding
	if err := clay.InitViper(config.AppName, root); err != nil {
		return nil, err
	}

	statusCmd, err := newStatusCobraCommand()
	if err != nil {
		return nil, err
	}
	root.AddCommand(
		NewTUICommand(),
		NewUploadCommand(),
		NewDeleteCommand(),
		NewAskCommand(),
		statusCmd,
		NewConfigCommand(),
	)
	return root, nil
}
