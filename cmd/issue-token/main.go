package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/lexidrill/examgen-backend/internal/config"
	"github.com/lexidrill/examgen-backend/internal/service"
)

// issue-token mints a requester JWT for development and integration
// testing. Production tokens come from the identity provider.
func main() {
	var requesterID string
	flag.StringVar(&requesterID, "requester", "", "Requester ID to embed in the token")
	flag.Parse()

	if requesterID == "" {
		log.Fatal("usage: issue-token -requester <id>")
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	token, err := authService.IssueToken(requesterID)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
