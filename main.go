package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/PolarWolf314/pkgdoctor/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := cmd.GetRootCmd()
	root.SetContext(ctx)
	code := cmd.Execute(root)
	stop()
	os.Exit(code)
}
