// ecopoints is the EcoPoints command-line client: earn points by scanning
// recycling-station QR codes, check your balance and history, and redeem
// rewards.
//
// Usage:
//
//	ecopoints login [email]           Log in and store the session
//	ecopoints register                Create an account
//	ecopoints logout                  Clear the stored session
//	ecopoints whoami                  Show the logged-in user
//	ecopoints balance                 Show the current point balance
//	ecopoints history                 Show the transaction history
//	ecopoints rewards [category]      List redeemable rewards
//	ecopoints redeem <reward-id>      Redeem a reward
//	ecopoints scan [flags]            Scan a station QR code
//	ecopoints reset-password          Recover a forgotten password
//	ecopoints station [flags]         Render a station's rotating QR code
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ecopoints-app/ecopoints/internal/api"
	"github.com/ecopoints-app/ecopoints/internal/app"
	"github.com/ecopoints-app/ecopoints/internal/config"
	"github.com/ecopoints-app/ecopoints/internal/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cmd, args, server := parseArgs()

	if cmd == "" || cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage()
		if cmd == "" {
			os.Exit(1)
		}
		return
	}
	if cmd == "version" || cmd == "--version" || cmd == "-v" {
		fmt.Printf("ecopoints version %s\n", version)
		return
	}

	cfg, a, err := newApp(server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ecopoints: %v\n", err)
		os.Exit(1)
	}
	if os.Getenv("NO_COLOR") == "" {
		style = styleFor(app.ResolveTheme(cfg.Theme))
	}
	if err := requireScreen(a, cmd); err != nil {
		fmt.Fprintf(os.Stderr, "ecopoints: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "login":
		err = cmdLogin(a, args)
	case "register":
		err = cmdRegister(a)
	case "logout":
		err = cmdLogout(a)
	case "whoami":
		err = cmdWhoami(a)
	case "balance":
		err = cmdBalance(a)
	case "history":
		err = cmdHistory(a)
	case "rewards":
		err = cmdRewards(a, args)
	case "redeem":
		err = cmdRedeem(a, args)
	case "scan":
		err = cmdScan(a, cfg, args)
	case "reset-password":
		err = cmdResetPassword(a)
	case "station":
		err = cmdStation(args)
	default:
		fmt.Fprintf(os.Stderr, "ecopoints: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ecopoints: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs extracts the subcommand, positional args, and --server override
// from os.Args.
func parseArgs() (command string, args []string, server string) {
	raw := os.Args[1:]
	var filtered []string
	for i := 0; i < len(raw); i++ {
		if raw[i] == "--server" && i+1 < len(raw) {
			server = raw[i+1]
			i++
			continue
		}
		filtered = append(filtered, raw[i])
	}
	if len(filtered) == 0 {
		return "", nil, server
	}
	return filtered[0], filtered[1:], server
}

// newApp wires config, session store, API client, and logger. Server
// resolution order: --server flag, ECOPOINTS_SERVER, config file, default.
func newApp(server string) (*config.Config, *app.App, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, err
	}
	if server == "" {
		server = os.Getenv("ECOPOINTS_SERVER")
	}
	if server == "" {
		server = cfg.Server
	}

	sessions, err := session.NewStore("")
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if os.Getenv("ECOPOINTS_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	return cfg, app.New(api.New(server), sessions, logger), nil
}

var stdin = bufio.NewReader(os.Stdin)

// prompt prints a label and reads one trimmed line from stdin.
func prompt(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printUsage() {
	fmt.Printf(`ecopoints - recycling rewards client %s

Usage:
  ecopoints [--server <url>] <command> [arguments]

Commands:
  login [email]           Log in and store the session
  register                Create an account
  logout                  Clear the stored session
  whoami                  Show the logged-in user
  balance                 Show the current point balance
  history                 Show the transaction history
  rewards [category]      List rewards (restaurant|cafe|retail|entertainment)
  redeem <reward-id>      Redeem a reward
  scan --image <file>     Scan a QR code from an image file
  scan --payload <str>    Submit an already-decoded payload
  reset-password          Recover a forgotten password
  station --id <id>       Render a station's rotating QR code
  version                 Print the client version

Options:
  --server <url>   API base URL (overrides config and ECOPOINTS_SERVER)

Environment:
  ECOPOINTS_SERVER   Override the API base URL
  ECOPOINTS_THEME    Force light or dark theme
`, version)
}
