package main

import (
	"context"
	"fmt"
	"os"

	"github.com/medallia/speech-api-reference-implementation/internal/cli"
	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

func main() {
	// Setup signal handling for graceful shutdown
	ctx, stop := util.SetupSignalHandler(context.Background(), nil)

	// Execute the CLI
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", util.FriendlyError(err))
		os.Exit(1)
	}
}
