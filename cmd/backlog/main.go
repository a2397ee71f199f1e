// Command backlog logs IRC traffic delivered by a bouncer and serves
// backlog replay and search over it.
package main

import (
	"context"
	"os"

	"github.com/roach88/backlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
