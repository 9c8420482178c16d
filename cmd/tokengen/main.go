// Command tokengen issues a bearer token for an actor. Identity is managed
// outside this service, so operators and integration tests mint tokens here.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"toolshed-backend/internal/config"
	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/security"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	userID := flag.Int("user", 0, "Member or admin user id")
	role := flag.String("role", string(domain.UserRoleMember), "MEMBER or ADMIN")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *userID <= 0 {
		log.Fatalf("-user must be a positive id")
	}

	actor := domain.Actor{UserID: int32(*userID), Role: domain.UserRole(strings.ToUpper(*role))}
	if actor.Role != domain.UserRoleMember && actor.Role != domain.UserRoleAdmin {
		log.Fatalf("unknown role %q", *role)
	}
	token, err := security.NewTokenManager(cfg.JWT.Secret).GenerateToken(actor, cfg.TokenTTL())
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
