// Command keygen mints an HMAC-signed API key for the scheduling
// endpoints without going through the admin HTTP surface.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/auth"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <userID>")
		os.Exit(1)
	}

	secret := os.Getenv("API_MASTER_SECRET")
	if secret == "" {
		fmt.Println("Error: API_MASTER_SECRET is not set")
		os.Exit(1)
	}

	userID := os.Args[1]
	key := auth.NewService("", secret).GenerateAPIKey(userID)
	fmt.Printf("Generated key for %s:\n%s\n", userID, key)
}
