package main

import (
	"context"
	"os"

	"github.com/sipstreak/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
