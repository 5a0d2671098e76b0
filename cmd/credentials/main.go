// Command credentials provisions callers of the mutating routes (a signed
// session token or an application password for HTTP Basic auth) and revokes sessions.
package main

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bdp-api/helper/internal/config"
	"github.com/bdp-api/helper/internal/database"
	"github.com/bdp-api/helper/internal/middleware"
	"github.com/bdp-api/helper/internal/models"
	jwtpkg "github.com/bdp-api/helper/internal/pkg/jwt"
	"github.com/bdp-api/helper/internal/pkg/session"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	username := flag.String("user", "", "Username to provision (created when missing)")
	kind := flag.String("kind", "token", "What to do: token | app-password | revoke")
	sessionID := flag.String("session", "", "Session id to revoke (with -kind revoke)")
	name := flag.String("name", "cli", "Label of the application password")
	ttl := flag.Duration("ttl", session.DefaultTTL, "Lifetime of an issued token")
	flag.Parse()

	var err error
	if *kind == "revoke" {
		err = revoke(*configPath, strings.TrimSpace(*sessionID))
	} else {
		err = run(*configPath, strings.TrimSpace(*username), *kind, *name, *ttl)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openDB(configPath string) (*gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	}
	return database.Connect(cfg, true)
}

func revoke(configPath, sessionID string) error {
	if sessionID == "" {
		return errors.New("-session is required")
	}
	db, err := openDB(configPath)
	if err != nil {
		return err
	}
	if err := session.Revoke(db, sessionID); err != nil {
		return fmt.Errorf("revoke %s: %w", sessionID, err)
	}
	fmt.Printf("session %s revoked\n", sessionID)
	return nil
}

func run(configPath, username, kind, name string, ttl time.Duration) error {
	if username == "" {
		return errors.New("-user is required")
	}
	db, err := openDB(configPath)
	if err != nil {
		return err
	}

	user, err := ensureUser(db, username)
	if err != nil {
		return err
	}

	switch kind {
	case "token":
		token, s, err := session.Issue(db, user.ID, "credentials-cli", ttl)
		if err != nil {
			return err
		}
		fmt.Printf("session %s expires %s\n%s\n", s.ID, s.ExpiresAt.Format(time.RFC3339), token)
	case "app-password":
		password, err := newAppPassword()
		if err != nil {
			return err
		}
		hash, err := middleware.HashAppPassword(password)
		if err != nil {
			return err
		}
		row := models.AppPasswordModel{UserID: user.ID, Name: name, Hash: hash}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
		fmt.Printf("application password %q for %s:\n%s\n", name, username, password)
	default:
		return fmt.Errorf("unknown -kind %q", kind)
	}
	return nil
}

func ensureUser(db *gorm.DB, username string) (*models.UserModel, error) {
	var user models.UserModel
	err := db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.UserModel{Username: username, Name: username}
		return &user, db.Create(&user).Error
	}
	return &user, err
}

// newAppPassword returns 24 random characters grouped in fours for display.
func newAppPassword() (string, error) {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := strings.ToLower(base32.StdEncoding.EncodeToString(buf))
	var groups []string
	for i := 0; i < len(raw); i += 4 {
		groups = append(groups, raw[i:i+4])
	}
	return strings.Join(groups, " "), nil
}
