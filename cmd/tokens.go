package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/travelcrm/travel-crm/internal/auth"
	authPostgres "github.com/travelcrm/travel-crm/internal/auth/postgres"
	userPostgres "github.com/travelcrm/travel-crm/internal/user/postgres"
	"github.com/travelcrm/travel-crm/pkg/logger"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Token maintenance commands",
	Long:  `Inspect tokens, revoke a user's sessions and purge expired blacklist entries`,
}

var inspectTokenCmd = &cobra.Command{
	Use:   "inspect [token]",
	Short: "Verify a token and print its claims",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		codec, err := auth.NewTokenCodecFromConfig(cfg.Security)
		if err != nil {
			log.Fatal(err)
		}

		claims, err := codec.Verify(args[0])
		if err != nil {
			fmt.Println("invalid token:", auth.TokenFailureReason(err))
			os.Exit(1)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(claims)
	},
}

var revokeEmail string

var revokeTokensCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke every refresh token of a user",
	Run: func(cmd *cobra.Command, args []string) {
		withTokenService(func(ctx context.Context, svc *auth.Service, _ *authPostgres.TokenStore) {
			n, err := svc.RevokeAllSessions(ctx, revokeEmail)
			if err != nil {
				log.Fatalf("failed to revoke sessions: %v", err)
			}
			fmt.Printf("Revoked %d refresh tokens for %s\n", n, revokeEmail)
		})
	},
}

var purgeTokensCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete blacklist entries whose tokens have expired",
	Run: func(cmd *cobra.Command, args []string) {
		withTokenService(func(ctx context.Context, _ *auth.Service, store *authPostgres.TokenStore) {
			n, err := store.PurgeExpiredBlacklist(ctx, time.Now())
			if err != nil {
				log.Fatalf("failed to purge blacklist: %v", err)
			}
			fmt.Printf("Purged %d expired blacklist entries\n", n)
		})
	},
}

func withTokenService(fn func(ctx context.Context, svc *auth.Service, store *authPostgres.TokenStore)) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer sqlDB.Close()

	db, err := initGorm(sqlDB)
	if err != nil {
		log.Fatalf("failed to init gorm: %v", err)
	}

	codec, err := auth.NewTokenCodecFromConfig(cfg.Security)
	if err != nil {
		log.Fatal(err)
	}

	store := authPostgres.NewTokenStore(sqlx.NewDb(sqlDB, pgxDriver))
	svc := auth.NewService(userPostgres.NewUserRepository(db), auth.NewHasherFromConfig(cfg.Security.Argon2), codec, store, logger.LoggerWrapper())

	fn(context.Background(), svc, store)
}

func init() {
	revokeTokensCmd.Flags().StringVar(&revokeEmail, "email", "", "email of the user whose sessions to revoke")
	_ = revokeTokensCmd.MarkFlagRequired("email")

	tokensCmd.AddCommand(inspectTokenCmd)
	tokensCmd.AddCommand(revokeTokensCmd)
	tokensCmd.AddCommand(purgeTokensCmd)
}
