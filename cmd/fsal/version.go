package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
)

// Version is the version string reported by the version command.
const Version = "1.0.0"

func versionMain(command *cobra.Command, arguments []string) error {
	fmt.Println(Version)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Shows version information",
	Run:   cmd.Mainify(versionMain),
}

var versionConfiguration struct {
	help bool
}

func init() {
	// Bind flags to configuration. We manually add help to override the default
	// message, but Cobra still implements it automatically.
	flags := versionCommand.Flags()
	flags.BoolVarP(&versionConfiguration.help, "help", "h", false, "Show help information")
}
