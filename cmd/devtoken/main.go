package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gigmarket/internal/config"
	"gigmarket/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

// 開発用のアクセストークン発行（本番の認証は外部サービス）
func main() {
	sub := flag.Int64("sub", 0, "user id")
	role := flag.String("role", string(model.RoleClient), "CLIENT / FREELANCER / ADMIN")
	tv := flag.Int("tv", 0, "token version")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.GoEnv == "prod" {
		fmt.Fprintln(os.Stderr, "devtoken is disabled in prod")
		os.Exit(1)
	}

	r, err := model.ParseRole(*role)
	if err != nil || *sub <= 0 {
		fmt.Fprintln(os.Stderr, "usage: devtoken -sub <id> -role CLIENT|FREELANCER|ADMIN [-tv n]")
		os.Exit(2)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  *sub,
		"role": string(r),
		"tv":   *tv,
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
