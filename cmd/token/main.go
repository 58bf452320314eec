package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
)

// token mints an access token signed with the configured secret, standing in
// for the identity service during local development.
func main() {
	logg := logger.New(logger.Options{ServiceName: "token", Output: os.Stderr})
	_ = godotenv.Load()

	userFlag := flag.String("user", "", "user id (uuid); a random one is generated when empty")
	roleFlag := flag.String("role", string(enums.RoleCustomer), "role: customer|admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	role, err := enums.ParseRole(*roleFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -role: %v\n", err)
		os.Exit(1)
	}

	userID := uuid.New()
	if *userFlag != "" {
		userID, err = uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			os.Exit(1)
		}
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		logg.Error(context.Background(), "failed to mint token", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"user_id": userID.String(),
		"role":    role.String(),
		"ttl":     cfg.JWT.TTL().String(),
	})
	logg.Info(ctx, "token minted")
	fmt.Println(token)
}
