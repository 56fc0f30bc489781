package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/Grupo-Cloud/frontend/internal/client/api"
	"github.com/Grupo-Cloud/frontend/internal/client/config"
	"github.com/Grupo-Cloud/frontend/internal/client/credentials"
	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/Grupo-Cloud/frontend/internal/client/services"
	"github.com/Grupo-Cloud/frontend/internal/client/session"
	"github.com/Grupo-Cloud/frontend/internal/client/storage"
	"github.com/Grupo-Cloud/frontend/internal/logging"
	"github.com/charmbracelet/glamour"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config *config.Config
	logger logging.Logger

	authService     services.AuthService
	userService     services.UserService
	documentService services.DocumentService
	chatService     services.ChatService

	store   credentials.Store
	session *session.State
	events  <-chan session.Event
	metrics prometheus.Gatherer

	// selected is the chat that ask and messages work on.
	selected *models.Chat
	userName string

	reader *bufio.Reader
	out    io.Writer
	// pretty enables styling and markdown rendering; set when stdout is a terminal.
	pretty   bool
	markdown *glamour.TermRenderer

	closers []func()
}

// NewApp opens the token database and builds the API client and services.
// The session starts authenticated when a token survived from a previous run.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	store := credentials.NewSessionStore(db)
	cred, _, err := store.Load(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	state := session.New(!cred.Empty())
	reg := prometheus.NewRegistry()

	apiClient, err := api.New(api.Config{
		BaseURL: c.BackURL,
		Timeout: c.RequestTimeout,
		Store:   store,
		Session: state,
		Logger:  logger,
		Metrics: api.NewMetrics(reg),
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	a := newApp(c, logger, apiClient, store, state, reg)
	a.closers = append(a.closers, func() { closeDB(ctx, logger, db) })

	if isTerminal(int(os.Stdout.Fd())) {
		a.pretty = true
		a.markdown, err = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			logger.Debug(ctx, "markdown rendering disabled", "error", err)
			a.markdown = nil
		}
	}
	return a, nil
}

func newApp(c *config.Config, logger logging.Logger, client services.Doer, store credentials.Store, state *session.State, reg prometheus.Gatherer) *App {
	events, cancel := state.Subscribe(8)
	return &App{
		config:          c,
		logger:          logger,
		authService:     services.NewAuthService(client, store, state),
		userService:     services.NewUserService(client),
		documentService: services.NewDocumentService(client, c.MaxUploadSize),
		chatService:     services.NewChatService(client, services.NewLLMService(client), c.HistoryConcurrency),
		store:           store,
		session:         state,
		events:          events,
		metrics:         reg,
		reader:          bufio.NewReader(os.Stdin),
		out:             os.Stdout,
		closers:         []func(){cancel},
	}
}

func closeDB(ctx context.Context, logger logging.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn(ctx, "closing database", "error", err)
	}
}

// Run blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Document chat CLI (type 'help' for commands)")
	if a.isLoggedIn() {
		if err := a.WhoAmI(ctx); err != nil {
			printlnFn(userMessage(err))
		}
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

// expired drains pending session events and reports whether the session
// ended by expiry since the last prompt.
func (a *App) expired() bool {
	expired := false
	for {
		select {
		case ev, ok := <-a.events:
			if !ok {
				return expired
			}
			switch ev.Reason {
			case session.ReasonExpired:
				expired = true
			case session.ReasonLogin:
				expired = false
			}
		default:
			if expired {
				a.selected = nil
				a.userName = ""
			}
			return expired
		}
	}
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return "(guest)"
	}
	s := a.userName
	if s == "" {
		s = "signed in"
	}
	if a.selected != nil {
		s += " | " + a.selected.Name
	}
	return "(" + s + ")"
}
