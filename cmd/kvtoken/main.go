// Command kvtoken mints a bearer token accepted by a server started with the
// same auth secret.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/server/auth"
)

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("kvtoken", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	secret := fs.String("s", os.Getenv("AUTH_SECRET"), "HMAC secret (defaults to AUTH_SECRET)")
	subject := fs.String("sub", "operator", "token subject")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return fmt.Errorf("secret is required: pass -s or set AUTH_SECRET")
	}
	if *ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", *ttl)
	}

	token, err := auth.GenerateToken(*subject, []byte(*secret), *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "kvtoken:", err)
		os.Exit(2)
	}
}
