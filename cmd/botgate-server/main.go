package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lumora-ai/botgate/internal/deploy"
	"github.com/lumora-ai/botgate/internal/logx"
	"github.com/lumora-ai/botgate/internal/oauth"
	"github.com/lumora-ai/botgate/internal/redact"
	"github.com/lumora-ai/botgate/internal/server"
	"github.com/lumora-ai/botgate/internal/server/db"
	"github.com/lumora-ai/botgate/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	verbose := flag.Bool("verbose", false, "Enable verbose debug logs (same as --log-level debug)")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error (or BOTGATE_LOG_LEVEL)")
	flag.BoolVar(showVersion, "v", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.String("botgate-server"))
		fmt.Fprintf(os.Stderr, "Botgate server manages OAuth provider connections and bot deployments for the agent dashboard.\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_MASTER_KEY        Token encryption key (64 hex chars, required)\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_SESSION_SECRET    Session token signing secret (min 16 chars, required)\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_DB_PATH           SQLite database path (default: botgate.db)\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_LISTEN_ADDR       Listen address (default: :8080)\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_BASE_URL          Public base URL for OAuth callbacks and webhooks (default: http://localhost:<port>)\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_UI_ORIGIN         Dashboard origin users are redirected back to (default: base URL)\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_CORS_ORIGINS      Comma-separated allowed CORS origins\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_GOOGLE_CLIENT_ID / _CLIENT_SECRET     Google OAuth app\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_MICROSOFT_CLIENT_ID / _CLIENT_SECRET  Microsoft OAuth app\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_ZOOM_CLIENT_ID / _CLIENT_SECRET       Zoom OAuth app\n")
		fmt.Fprintf(os.Stderr, "  BOTGATE_LOG_LEVEL         Log level: debug|info|warn|error (default: info)\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("botgate-server"))
		os.Exit(0)
	}

	if err := logx.Configure(*logLevel, *verbose); err != nil {
		log.Fatalf("configure logging: %v", err)
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// All token and bot-secret values observed at runtime get registered
	// with the sink, so they come out of the logs as [REDACTED].
	sink := redact.NewMaskingWriter(os.Stderr, nil)
	logx.SetOutput(sink)

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	reg := oauth.NewRegistry(cfg.BaseURL, cfg.Providers)
	dc := deploy.NewClient()

	r := server.NewRouter(store, cfg, reg, dc, sink)
	logx.Infof("server config: base_url=%s ui_origin=%s providers=%d", cfg.BaseURL, cfg.UIOrigin, len(cfg.Providers))

	log.Printf("botgate-server listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
