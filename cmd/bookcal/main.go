package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/bookcal/internal"
	"github.com/guilherme-santos/bookcal/internal/availability"
	"github.com/guilherme-santos/bookcal/internal/booking"
	"github.com/guilherme-santos/bookcal/internal/mail"
	"github.com/guilherme-santos/bookcal/internal/sqlite"
	"github.com/guilherme-santos/bookcal/provider"
	"github.com/guilherme-santos/bookcal/provider/caldavcal"
	"github.com/guilherme-santos/bookcal/provider/daily"
	"github.com/guilherme-santos/bookcal/provider/google"
	"github.com/guilherme-santos/bookcal/provider/office365"
	"github.com/guilherme-santos/bookcal/provider/zoom"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.App{
		Name:  "bookcal",
		Usage: "book meetings across connected calendar and video providers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Value:   "bookcal.db",
				Usage:   "path to the sqlite database",
				EnvVars: []string{"BOOKCAL_DB"},
			},
		},
		Commands: []*cli.Command{
			bookCommand(log),
			availabilityCommand(log),
			calendarsCommand(log),
			addCredentialCommand(log),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type env struct {
	log     *slog.Logger
	storage *sqlite.Storage
	mux     *provider.Mux
	creds   []internal.Credential
}

// setup opens the database, loads every stored credential and registers an
// adapter for each credential type it knows how to serve.
func setup(ctx context.Context, c *cli.Context, log *slog.Logger) (*env, error) {
	db, err := sql.Open(sqlite.DriverName, c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	storage := sqlite.NewStorage(db)

	creds, err := storage.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	mux := provider.NewMux()
	for _, cred := range creds {
		if err := register(log, mux, storage, cred); err != nil {
			return nil, err
		}
	}

	return &env{log: log, storage: storage, mux: mux, creds: creds}, nil
}

func register(log *slog.Logger, mux *provider.Mux, storage *sqlite.Storage, cred internal.Credential) error {
	switch cred.Type {
	case internal.TypeGoogleCalendar:
		credFile := os.Getenv("GOOGLE_CREDENTIALS_FILE")
		if credFile == "" {
			credFile = "credentials.json"
		}
		credJSON, err := os.ReadFile(credFile)
		if err != nil {
			return fmt.Errorf("reading google credentials file: %w", err)
		}
		oauthCfg, err := googleoauth.ConfigFromJSON(credJSON, calendar.CalendarScope)
		if err != nil {
			return fmt.Errorf("parsing google credentials file: %w", err)
		}
		mux.RegisterCalendar(cred.Type, google.NewClient(log, oauthCfg, storage, cred))
	case internal.TypeOffice365Calendar:
		client, err := office365.NewClient(log, nil,
			os.Getenv("OFFICE365_CLIENT_ID"), os.Getenv("OFFICE365_CLIENT_SECRET"),
			storage, cred)
		if err != nil {
			return err
		}
		mux.RegisterCalendar(cred.Type, client)
	case internal.TypeCalDAVCalendar, internal.TypeAppleCalendar:
		client, err := caldavcal.NewClient(log, cred.Type, cred)
		if err != nil {
			return err
		}
		mux.RegisterCalendar(cred.Type, client)
	case internal.TypeZoomVideo:
		client, err := zoom.NewClient(log, nil,
			os.Getenv("ZOOM_CLIENT_ID"), os.Getenv("ZOOM_CLIENT_SECRET"),
			storage, cred)
		if err != nil {
			return err
		}
		mux.RegisterVideo(cred.Type, client)
	case internal.TypeDailyVideo:
		client, err := daily.NewClient(log, nil, cred)
		if err != nil {
			return err
		}
		mux.RegisterVideo(cred.Type, client)
	default:
		// Credentials from retired integrations stay in the database and
		// are simply never dispatched to.
		log.Debug("no adapter for credential type", "type", cred.Type)
	}
	return nil
}

func (e *env) manager() *booking.Manager {
	mailer := mail.NewSMTP(e.log,
		os.Getenv("SMTP_ADDR"), os.Getenv("SMTP_FROM"),
		os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"))
	return booking.NewManager(e.log, e.mux, e.storage, mailer)
}

func (e *env) aggregator() *availability.Aggregator {
	return availability.New(e.log, e.mux)
}
