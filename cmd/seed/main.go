package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/database"
	"github.com/axiestudio/embedded-chat/internal/models"
	"github.com/axiestudio/embedded-chat/internal/repos"
	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

type CLI struct {
	cfg     *config.Config
	db      database.Database
	configs *services.ChatConfigService
	relay   *services.RelayClient
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if _, err := database.MigrateEmbedded(db, cfg.Database.URL); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	logger := utils.NopLogger()
	configs := services.NewChatConfigService(repos.NewChatConfigRepo(db.DB()), cfg.Slug, logger)
	if cfg.Security.EncryptionKey != "" {
		box, err := services.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			log.Fatalf("Failed to initialize encryption: %v", err)
		}
		configs.WithEncryption(box)
	}

	cli := &CLI{
		cfg:     cfg,
		db:      db,
		configs: configs,
		relay:   services.NewRelayClient(cfg.Relay, logger),
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	// Pass remaining arguments to command handlers
	args := os.Args[2:]

	switch command {
	case "config-save":
		cli.saveConfig(args)
	case "config-list":
		cli.listConfigs()
	case "config-show":
		cli.showConfig(args)
	case "config-delete":
		cli.deleteConfig(args)
	case "config-test":
		cli.testConfig(args)
	case "token":
		cli.issueToken(args)
	case "db-status":
		cli.checkDatabaseStatus()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Embedded Chat - Seed CLI")
	fmt.Println()
	fmt.Println("Usage: seed <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  config-save     Create or update an organization's chat configuration")
	fmt.Println("  config-list     List all chat configurations")
	fmt.Println("  config-show     Show one organization's configuration")
	fmt.Println("  config-delete   Delete an organization's configuration")
	fmt.Println("  config-test     Send a test message through a saved configuration")
	fmt.Println("  token           Issue a bearer token for an organization")
	fmt.Println("  db-status       Check database connection status")
	fmt.Println()
	fmt.Println("Use 'seed <command> -h' for command-specific help")
}

func (cli *CLI) saveConfig(args []string) {
	var (
		org, baseURL, workflowID, apiKey string
		company, title, welcome, slug    string
		disabled                         bool
	)

	fs := flag.NewFlagSet("config-save", flag.ExitOnError)
	fs.StringVar(&org, "org", "", "Organization ID (required)")
	fs.StringVar(&baseURL, "base-url", "", "Workflow API base URL")
	fs.StringVar(&workflowID, "workflow-id", "", "Workflow ID")
	fs.StringVar(&apiKey, "api-key", "", "Workflow API key")
	fs.StringVar(&company, "company", "", "Company name")
	fs.StringVar(&title, "title", "", "Chat title")
	fs.StringVar(&welcome, "welcome", "", "Welcome message")
	fs.StringVar(&slug, "slug", "", "Public slug, only used on creation")
	fs.BoolVar(&disabled, "disabled", false, "Save the configuration disabled")

	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if org == "" {
		fmt.Println("Error: --org is required")
		fs.Usage()
		os.Exit(1)
	}

	fields := services.ChatConfigFields{
		BaseURL:     optional(baseURL),
		WorkflowID:  optional(workflowID),
		APIKey:      optional(apiKey),
		CompanyName: optional(company),
		ChatTitle:   optional(title),
		PublicSlug:  optional(slug),
	}
	if welcome != "" {
		fields.WelcomeMessage = &welcome
	}
	enabled := !disabled
	fields.IsEnabled = &enabled

	cfg, err := cli.configs.Upsert(context.Background(), org, fields)
	if err != nil {
		log.Fatalf("Failed to save configuration: %v", err)
	}

	fmt.Printf("✅ Chat configuration saved!\n")
	printConfig(cfg)
}

func (cli *CLI) listConfigs() {
	configs, err := cli.configs.List(context.Background())
	if err != nil {
		log.Fatalf("Failed to list configurations: %v", err)
	}

	if len(configs) == 0 {
		fmt.Println("No chat configurations found")
		return
	}

	fmt.Printf("%-6s %-24s %-14s %-8s %s\n", "ID", "ORGANIZATION", "SLUG", "ENABLED", "ENDPOINT")
	fmt.Println(strings.Repeat("-", 90))
	for _, cfg := range configs {
		endpoint := services.RelayTarget{BaseURL: cfg.BaseURL, WorkflowID: cfg.WorkflowID}.Endpoint()
		fmt.Printf("%-6d %-24s %-14s %-8t %s\n",
			cfg.ID, truncate(cfg.OrganizationID, 24), cfg.PublicSlug, cfg.IsEnabled, truncate(endpoint, 40))
	}
}

func (cli *CLI) showConfig(args []string) {
	org := orgFlag("config-show", args)

	cfg, err := cli.configs.GetByOrganization(context.Background(), org)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	printConfig(cfg)
}

func (cli *CLI) deleteConfig(args []string) {
	org := orgFlag("config-delete", args)

	cfg, err := cli.configs.Delete(context.Background(), org)
	if err != nil {
		log.Fatalf("Failed to delete configuration: %v", err)
	}
	fmt.Printf("✅ Deleted configuration %d (slug %s)\n", cfg.ID, cfg.PublicSlug)
}

func (cli *CLI) testConfig(args []string) {
	var org, message string
	fs := flag.NewFlagSet("config-test", flag.ExitOnError)
	fs.StringVar(&org, "org", "", "Organization ID (required)")
	fs.StringVar(&message, "message", "", "Test message")
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if org == "" {
		fmt.Println("Error: --org is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := cli.configs.GetByOrganization(context.Background(), org)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	result := cli.relay.TestConnection(context.Background(), services.TargetFor(cfg), message, "")
	if !result.Success {
		fmt.Printf("❌ %s: %s\n", result.Message, result.Error)
		os.Exit(1)
	}

	fmt.Printf("✅ %s\n", result.Message)
	fmt.Printf("   Reply: %s\n", services.ExtractReply(result.Data))
}

func (cli *CLI) issueToken(args []string) {
	var org, subject string
	var ttl time.Duration
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	fs.StringVar(&org, "org", "", "Organization ID (required)")
	fs.StringVar(&subject, "subject", "seed-cli", "Token subject")
	fs.DurationVar(&ttl, "ttl", cli.cfg.Security.JWTExpiry, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if org == "" {
		fmt.Println("Error: --org is required")
		fs.Usage()
		os.Exit(1)
	}
	if cli.cfg.Security.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required to issue tokens")
	}

	jwt := services.NewJWTService(cli.cfg.Security.JWTSecret, cli.cfg.Security.JWTIssuer, ttl)
	token, err := jwt.GenerateToken(subject, org)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func (cli *CLI) checkDatabaseStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cli.db.Ping(ctx); err != nil {
		fmt.Printf("❌ Database unreachable: %v\n", err)
		os.Exit(1)
	}

	configs, err := cli.configs.List(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to query chat_configs: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Database connected\n")
	fmt.Printf("   Chat configurations: %d\n", len(configs))
}

func orgFlag(name string, args []string) string {
	var org string
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&org, "org", "", "Organization ID (required)")
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if org == "" {
		fmt.Println("Error: --org is required")
		fs.Usage()
		os.Exit(1)
	}
	return org
}

func printConfig(cfg *models.ChatConfig) {
	view := cfg.PublicView()
	fmt.Printf("   ID: %d\n", cfg.ID)
	fmt.Printf("   Organization: %s\n", cfg.OrganizationID)
	fmt.Printf("   Public slug: %s\n", cfg.PublicSlug)
	fmt.Printf("   Enabled: %t\n", cfg.IsEnabled)
	fmt.Printf("   Endpoint: %s\n", services.TargetFor(cfg).Endpoint())
	fmt.Printf("   Has API key: %t\n", cfg.HasAPIKey())
	fmt.Printf("   Page title: %s\n", view.Title)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
