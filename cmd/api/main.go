package main

import (
	"context"
	"log"

	"github.com/tshirtshop/commerce-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("commerce api exited: %v", err)
	}
}
