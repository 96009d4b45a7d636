// Command token mints a bearer token for the discount admin screens.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/toko-volume-discounts/internal/auth"
	"github.com/noah-isme/toko-volume-discounts/internal/config"
)

func main() {
	actor := flag.String("actor", "admin", "actor id placed in the token subject")
	caps := flag.String("caps", auth.CapEditShopDiscounts+","+auth.CapManageShopDiscounts, "comma-separated capabilities")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	svc, err := auth.NewService(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var capabilities []string
	for _, c := range strings.Split(*caps, ",") {
		if c = strings.TrimSpace(c); c != "" {
			capabilities = append(capabilities, c)
		}
	}
	token, expiresAt, err := svc.Issue(*actor, capabilities, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
