// Command token mints a signed access token for calling the product
// write routes, using JWT_SECRET from the environment or .env.
package main

import (
	"flag"
	"fmt"
	"os"
	"product-service/config"
	"product-service/internal/domain"
	"product-service/pkg/utils"
	"time"
)

func main() {
	sub := flag.String("sub", "cli", "subject (user id)")
	email := flag.String("email", "", "email claim")
	role := flag.String("role", domain.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	token, err := utils.GenerateJWT(*sub, *email, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
