package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/travelcrm/travel-crm/internal/auth"
	organizationDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/organization"
	userPostgres "github.com/travelcrm/travel-crm/internal/user/postgres"
	"gorm.io/gorm"
)

const (
	seedAdminEmail    = "admin@travelcrm.com"
	seedAdminPassword = "admin123"
	seedDemoOrgName   = "Demo Travel Agency"
)

var seedDemoUsers = []struct {
	Email string
	Role  auth.Role
}{
	{"supervisor@travelcrm.com", auth.RoleSupervisor},
	{"accountant@travelcrm.com", auth.RoleAccountant},
	{"operator@travelcrm.com", auth.RoleOperator},
}

var seedDemo bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the initial administrator",
	Long:  `Create the initial administrator and, with --demo, a demo organization with one user per role. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
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

		ctx := context.Background()
		users := userPostgres.NewUserRepository(db)
		hasher := auth.NewHasherFromConfig(cfg.Security.Argon2)

		if err := ensureUser(ctx, users, hasher, seedAdminEmail, seedAdminPassword, auth.RoleAdmin, nil); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}

		if !seedDemo {
			return
		}

		org := organizationDatamodel.Organization{Name: seedDemoOrgName, Type: "travel_agency", IsActive: true}
		if err := db.WithContext(ctx).Where("name = ?", seedDemoOrgName).FirstOrCreate(&org).Error; err != nil {
			log.Fatalf("failed to seed demo organization: %v", err)
		}
		fmt.Println("Demo organization:", org.Name, "id", org.ID)

		for _, u := range seedDemoUsers {
			if err := ensureUser(ctx, users, hasher, u.Email, seedAdminPassword, u.Role, &org.ID); err != nil {
				log.Fatalf("failed to seed %s: %v", u.Email, err)
			}
		}
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "Also create a demo organization with one user per role")
}

func ensureUser(ctx context.Context, users auth.UserRepository, hasher auth.Hasher, email, password string, role auth.Role, orgID *int64) error {
	if _, err := users.FindByEmail(ctx, email); err == nil {
		fmt.Println("user already exists:", email)
		return nil
	} else if !errors.Is(err, auth.ErrUserNotFound) {
		return err
	}

	digest, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	err = users.Create(ctx, &auth.User{Email: email, PasswordHash: digest, Role: role, OrganizationID: orgID})
	if errors.Is(err, auth.ErrEmailTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %s user: %s\n", role, email)
	return nil
}
