package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/go-go-golems/pdfchat/cmd/pdfchat/cmds"
)

func main() {
	rootCmd, err := cmds.NewRootCommand()
	cobra.CheckErr(err)

	err = rootCmd.ExecuteContext(context.Background())
	cobra.CheckErr(err)
}
