package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"studiodesk/pkg/config"
	"studiodesk/pkg/session"
)

// devtoken prints a dashboard session token signed with SESSION_SECRET, for curl and
// local frontend work against an API running without an identity provider.
func main() {
	var (
		email = flag.String("email", "dev@studio.local", "token email")
		role  = flag.String("role", "staff", "admin | staff | viewer")
		ttl   = flag.Duration("ttl", 12*time.Hour, "token lifetime")
	)
	flag.Parse()

	cfg := config.Load()
	if cfg.Session.Secret == "" {
		fmt.Fprintln(os.Stderr, "missing SESSION_SECRET (env or .env)")
		os.Exit(2)
	}
	r, err := session.ParseRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	now := time.Now()
	tok, err := session.Sign(session.Session{
		UserID:    *email,
		Email:     *email,
		Role:      r,
		ExpiresAt: now.Add(*ttl),
	}, cfg.Session.Secret, cfg.Session.Issuer, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
