package main

import (
	"context"
	"os"
)

func main() {
	if err := run(context.Background(), openFromEnv, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
