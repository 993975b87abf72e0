package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/ContentForge/internal/config"
	"github.com/Strob0t/ContentForge/internal/domain/permission"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/service"
)

// runAdmin dispatches admin subcommands (issue-token).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "issue-token":
		return runAdminIssueToken(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: contentforge admin <command> [options]

Commands:
  issue-token   Sign a bearer token for a tenant
  help          Show this help message

Examples:
  contentforge admin issue-token --subject ci --tenant acme
  contentforge admin issue-token --subject editor --tenant acme \
      --permissions '[{"name":"cms.manage.contentModel","rwd":"r","own":true}]'
`)
}

func runAdminIssueToken(args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	subject := fs.String("subject", "", "token subject (required)")
	tenantID := fs.String("tenant", tenant.DefaultID, "tenant id")
	tenantName := fs.String("tenant-name", "", "tenant display name (defaults to the id)")
	perms := fs.String("permissions", `[{"name":"*","rwd":"rwd"}]`, "JSON permission list")
	ttl := fs.Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	configPath := fs.String("config", config.DefaultConfigFile, "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *subject == "" {
		return fmt.Errorf("--subject is required")
	}

	var set permission.Set
	if err := json.Unmarshal([]byte(*perms), &set); err != nil {
		return fmt.Errorf("parse --permissions: %w", err)
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		secret, err := promptSecret("JWT secret: ")
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		cfg.Auth.JWTSecret = secret
	}

	name := *tenantName
	if name == "" {
		name = *tenantID
	}
	token, err := service.NewTokenIssuer(&cfg.Auth).Issue(*subject, tenant.Ref{ID: *tenantID, Name: name}, set, *ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	expires := cfg.Auth.TokenTTL
	if *ttl > 0 {
		expires = *ttl
	}
	fmt.Fprintf(os.Stderr, "Token for %s in tenant %s expires %s\n", *subject, *tenantID, time.Now().Add(expires).Format(time.RFC3339))
	return nil
}

// promptSecret reads a secret from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)                         // newline after secret input
	if err != nil {
		return "", err
	}
	return string(b), nil
}
