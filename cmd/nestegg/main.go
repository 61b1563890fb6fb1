package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/config"
	"github.com/nestegg-app/nestegg/internal/controller"
	"github.com/nestegg-app/nestegg/internal/prefs"
	"github.com/nestegg-app/nestegg/internal/secrets"
	"github.com/nestegg-app/nestegg/internal/tui"
)

const tokenProfile = "default"

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "login":
			if err := runLogin(os.Args[2:]); err != nil {
				log.Fatalf("login: %v", err)
			}
		case "logout":
			if err := secrets.DeleteAccessToken(tokenProfile); err != nil {
				log.Fatalf("logout: %v", err)
			}
			fmt.Println("token removed")
		case "init":
			if err := runInit(); err != nil {
				log.Fatalf("init: %v", err)
			}
		default:
			fmt.Fprintln(os.Stderr, "usage: nestegg [login [token] | logout | init]")
			os.Exit(2)
		}
		return
	}

	runApp()
}

// runLogin stores the API token in the encrypted per-user store. The token
// comes from the argument when given, otherwise from a prompt.
func runLogin(args []string) error {
	var token string
	if len(args) > 0 {
		token = strings.TrimSpace(args[0])
	} else {
		fmt.Print("API token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return err
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("empty token")
	}
	if err := secrets.StoreAccessToken(tokenProfile, token); err != nil {
		return err
	}
	fmt.Println("token saved")
	return nil
}

// runInit writes the effective configuration to the config file so users
// have something to edit.
func runInit() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println("wrote", config.Path())
	return nil
}

func runApp() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	token := resolveToken(cfg)
	if token == "" {
		log.Fatalf("no API token: set %s, run `nestegg login`, or add api.token to %s", tokenEnvName(cfg), config.Path())
	}

	client := api.New(cfg.API.BaseURL, token,
		api.WithTimeout(time.Duration(cfg.API.TimeoutSeconds)*time.Second))

	reporter := newReporter()

	goals := controller.NewGoalList(client, reporter)
	wizard := controller.NewOnboardingWizard(client, reporter)
	seeder := controller.NewSeededSetup(client, reporter)
	budget := controller.NewBudgetTree(client, reporter)

	onboarded := false
	if st, err := prefs.LoadOnboarding(); err == nil {
		onboarded = st.Completed
	}

	app := tui.New(ctx, cfg, tui.Deps{
		Goals:         goals,
		Wizard:        wizard,
		Seeder:        seeder,
		Budget:        budget,
		Service:       client,
		Source:        client,
		MarkOnboarded: prefs.MarkOnboardingComplete,
	}, onboarded)

	p := tea.NewProgram(app, tea.WithAltScreen())

	// Controllers notify on their own goroutines; a Send wakes the program
	// so the next View reads fresh snapshots.
	refresh := func() { p.Send(tui.RefreshMsg{}) }
	goals.Subscribe(refresh)
	wizard.Subscribe(refresh)
	seeder.Subscribe(refresh)
	budget.Subscribe(refresh)

	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

// resolveToken finds the API token: environment first, then the encrypted
// per-user store, then the config file.
func resolveToken(cfg config.Config) string {
	if v := os.Getenv(tokenEnvName(cfg)); v != "" {
		return v
	}
	t, err := secrets.FetchAccessToken(tokenProfile)
	if err == nil {
		return t
	}
	if !errors.Is(err, secrets.ErrNotFound) {
		log.Printf("warn: token store unreadable: %v", err)
	}
	return strings.TrimSpace(cfg.API.Token)
}

func tokenEnvName(cfg config.Config) string {
	if env := strings.TrimSpace(cfg.API.TokenEnv); env != "" {
		return env
	}
	return "NESTEGG_API_TOKEN"
}

// newReporter returns a slog-backed reporter when NESTEGG_DEBUG_LOG names a
// file, otherwise nil so the controllers fall back to NopReporter. Stdout is
// not an option while the TUI owns the terminal.
func newReporter() controller.Reporter {
	path := os.Getenv("NESTEGG_DEBUG_LOG")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("warn: debug log disabled: %v", err)
		return nil
	}
	return slogReporter{logger: slog.New(slog.NewTextHandler(f, nil))}
}

type slogReporter struct {
	logger *slog.Logger
}

func (r slogReporter) Event(name string, attrs ...any) {
	r.logger.Info(name, attrs...)
}
