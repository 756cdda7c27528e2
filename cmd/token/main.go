// Command token mints a bearer token for a user id, signed with the
// configured secret. Intended for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Domenick1991/gdsbooking/config"
	"github.com/Domenick1991/gdsbooking/internal/auth"
)

func main() {
	userID := flag.String("user", "", "user id to put in the token")
	flag.Parse()

	if *userID == "" {
		log.Fatalf("-user is required")
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	token, err := auth.GenerateToken(*userID, []byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
