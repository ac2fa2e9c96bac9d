package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/kiranvarmap/qms/internal/core/ids"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a bootstrap admin account",
	Long:  `Seed the database with an approved admin account so the approval workflow can be bootstrapped.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		password := "admin123"
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}

		adminUsername := "admin"
		var exists int
		row := db.Raw("SELECT 1 FROM users WHERE username = ?", adminUsername).Row()
		if err := row.Scan(&exists); err == nil {
			fmt.Println("admin user already exists, nothing to do")
			return
		}

		// Seeded accounts bypass the admission gate; they are born approved.
		err = db.Exec(`INSERT INTO users (id, username, hashed_password, full_name, email, role, active, approval_status, approved_by, approved_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'admin', true, 'approved', 'system', ?, ?, ?)`,
			ids.New("usr"), adminUsername, string(hash), "System Administrator", "admin@qms.local",
			time.Now(), time.Now(), time.Now()).Error
		if err != nil {
			log.Fatalf("failed to insert admin user: %v", err)
		}

		fmt.Println("Seeded admin user:", adminUsername)
	},
}
