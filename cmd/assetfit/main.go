// Command assetfit loads images through the asset cache and renders them
// into fixed-size boxes with CSS object-fit semantics.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/assets/cmd/assetfit/commands"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New(os.Stdout, os.Stderr)
	cli.SetArgs(args)
	if err := cli.Execute(ctx); err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
