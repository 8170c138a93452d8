package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/assets"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(_ *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(c.stdout, "assetfit version %s\n", assets.Version)
		},
	}
}
