// Package main provides a CLI tool for minting access tokens against a
// running carddash instance.  Tokens are signed with JWT_SECRET (or -secret)
// and accepted by the dashboard routes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/iliyamo/carddash/internal/middleware"
	"github.com/iliyamo/carddash/internal/utils"
)

type tokenOutput struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
	Usage     string `json:"usage"`
}

func main() {
	_ = godotenv.Load()

	userID := flag.String("user-id", "", "User ID (UUID). Generated if empty.")
	role := flag.String("role", middleware.RoleUser, "Role claim (USER or ADMIN)")
	ttl := flag.Duration("ttl", 15*time.Minute, "Token time-to-live")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "Signing secret (defaults to JWT_SECRET)")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "tokengen: no secret; set JWT_SECRET or pass -secret")
		os.Exit(1)
	}
	if *userID == "" {
		*userID = uuid.NewString()
	}

	tok, err := utils.NewAccessToken(*secret, *userID, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}

	if !*asJSON {
		fmt.Println(tok.Token)
		return
	}
	out := tokenOutput{
		Token:     tok.Token,
		UserID:    *userID,
		Role:      *role,
		ExpiresAt: tok.Exp.Format(time.RFC3339),
		Usage:     "curl -H 'Authorization: Bearer " + tok.Token + "' http://localhost:8080/v1/dashboard",
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}
