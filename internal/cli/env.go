package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tgienger/plan/internal/config"
	"github.com/tgienger/plan/internal/db"
	"github.com/tgienger/plan/internal/derive"
	"github.com/tgienger/plan/internal/logging"
	"github.com/tgienger/plan/internal/planner"
	"github.com/tgienger/plan/internal/session"
)

// env is everything a command needs once configuration is loaded
type env struct {
	cfg      *config.Config
	db       *db.DB
	sessions *session.Manager
	planner  *planner.Planner
	changes  chan uint64
	closeLog func() error
}

// openEnv loads configuration, installs the logger and opens the store.
// logOut receives log records when no log file is configured.
func openEnv(logOut io.Writer) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	closeLog, err := logging.Setup(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	path := cfg.Database.Path
	if path == "" {
		if path, err = db.DefaultPath(); err != nil {
			closeLog()
			return nil, err
		}
	}
	database, err := db.New(path)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	e := &env{
		cfg:      cfg,
		db:       database,
		sessions: session.NewManager(),
		changes:  make(chan uint64, 1),
		closeLog: closeLog,
	}
	e.planner = planner.New(database, database, planner.WithOnChange(e.notify))
	return e, nil
}

// notify coalesces change notifications; a pending one already makes the
// UI redraw from the newest snapshot
func (e *env) notify(version uint64) {
	select {
	case e.changes <- version:
	default:
	}
}

func (e *env) Close() error {
	e.db.Close()
	return e.closeLog()
}

// userEmail picks the --email flag, then user.email, then the login name
func (e *env) userEmail() string {
	if email != "" {
		return email
	}
	if e.cfg.User.Email != "" {
		return e.cfg.User.Email
	}
	name := os.Getenv("USER")
	if name == "" {
		name = "me"
	}
	return name + "@localhost"
}

// signIn loads the user synchronously, for commands that print and exit
func (e *env) signIn(ctx context.Context) error {
	user, err := e.sessions.SignIn(e.userEmail())
	if err != nil {
		return err
	}
	return e.planner.InitializeForUser(ctx, user.UID)
}

// follow binds the planner to the session and signs in; the load happens
// in the background and the UI redraws when it lands
func (e *env) follow(ctx context.Context) error {
	events, unsubscribe := e.sessions.Subscribe()
	go func() {
		defer unsubscribe()
		e.planner.Bind(ctx, events)
	}()
	_, err := e.sessions.SignIn(e.userEmail())
	return err
}

// filters returns the configured view defaults
func (e *env) filters() (derive.Filters, error) {
	mode, err := derive.ParseCalendarMode(e.cfg.Calendar.Mode)
	if err != nil {
		return derive.Filters{}, err
	}
	f := derive.DefaultFilters()
	f.CalendarMode = mode
	return f, nil
}

func defaultConfigHint() string {
	return config.GlobalConfigPath()
}
