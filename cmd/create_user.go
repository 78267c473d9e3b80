package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/travelcrm/travel-crm/internal/auth"
	userPostgres "github.com/travelcrm/travel-crm/internal/user/postgres"
	"golang.org/x/term"
)

var (
	createUserEmail string
	createUserRole  string
	createUserOrgID int64
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user from the command line",
	Long:  `Create a user with any role, bypassing the HTTP role assignment rules. The password is read from the terminal without echo, or from the first line of stdin.`,
	Run: func(cmd *cobra.Command, args []string) {
		role, err := auth.ParseRole(createUserRole)
		if err != nil {
			log.Fatal(err)
		}

		password, err := readPassword()
		if err != nil {
			log.Fatalf("failed to read password: %v", err)
		}
		if len(password) < 6 {
			log.Fatal("password must be at least 6 characters")
		}

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

		var orgID *int64
		if createUserOrgID > 0 {
			orgID = &createUserOrgID
		}

		digest, err := auth.NewHasherFromConfig(cfg.Security.Argon2).Hash(password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		u := &auth.User{Email: strings.TrimSpace(createUserEmail), PasswordHash: digest, Role: role, OrganizationID: orgID}
		if err := userPostgres.NewUserRepository(db).Create(context.Background(), u); err != nil {
			log.Fatalf("failed to create user: %v", err)
		}

		fmt.Printf("Created %s user %s (id %d)\n", u.Role, u.Email, u.ID)
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "email address (required)")
	createUserCmd.Flags().StringVar(&createUserRole, "role", string(auth.RoleOperator), "admin, supervisor, accountant or operator")
	createUserCmd.Flags().Int64Var(&createUserOrgID, "org", 0, "organization id")
	_ = createUserCmd.MarkFlagRequired("email")
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
