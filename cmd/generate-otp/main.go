package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pquerna/otp/totp"

	"vault-backend/internal/services"
)

// Dev helper: prints the current OTP code for a stored registration secret.

func main() {
	secret := flag.String("secret", os.Getenv("TOTP_SECRET"), "base32 TOTP secret")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret (or TOTP_SECRET)")
		os.Exit(1)
	}

	opts := services.TOTPOpts()
	code, err := totp.GenerateCodeCustom(*secret, time.Now(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating code: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Current OTP code: %s\n", code)
	fmt.Printf("Valid for up to %d seconds\n", opts.Period)
}
