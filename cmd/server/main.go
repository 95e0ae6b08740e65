// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/server"
)

func main() {
	cmd := &cli.Command{
		Name:   "devshelf",
		Usage:  "Start the devshelf API server",
		Flags:  config.Flags(),
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
