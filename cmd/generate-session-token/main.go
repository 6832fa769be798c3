package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vault-backend/internal/services"
)

// Dev helper: mints a session token without going through /verify_otp.

func main() {
	phone := flag.String("phone", "+6587654321", "phone number claim")
	nickname := flag.String("nickname", "Jean", "nickname claim")
	secret := flag.String("secret", os.Getenv("SESSION_JWT_SECRET"), "HS256 signing secret")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret (or SESSION_JWT_SECRET)")
		os.Exit(1)
	}

	now := time.Now()
	claims := services.SessionClaims{
		PhoneNumber: *phone,
		Nickname:    *nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "vault-backend",
			Subject:   uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
}
