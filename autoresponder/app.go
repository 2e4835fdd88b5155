// Package autoresponder implements an automated Gmail reply service. It
// polls an inbox for unread messages, matches them against configurable
// exclusion and response rules, renders the selected template, and drafts
// or sends the reply through the mailbox provider.
package autoresponder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultPort           = 8334
	jsonParseErrorMessage = `{"errors":[{"message":"failed to parse response body to json"}]}`
)

// App represents the main application state shared by the polling cycle and
// the status server.
type App struct {
	config    *Config
	logger    *zap.SugaredLogger
	gateway   Gateway
	rules     *Ruleset
	templates *TemplateStore

	statsMu sync.Mutex
	stats   Stats
}

// Stats is the response body of the status endpoint.
type Stats struct {
	Cycles    int    `json:"cycles"`
	Seen      int    `json:"messages_seen"`
	Responded int    `json:"responses_created"`
	LastCheck string `json:"last_check,omitempty"`
}

// createLogger creates and returns a new development logger.
func createLogger() (*zap.SugaredLogger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return logger.Sugar(), nil
}

// newApp wires the application together. Configuration problems are fatal:
// the responder refuses to start with an unreadable rules document or
// missing credentials.
func newApp(config *Config) (*App, error) {
	logger, err := createLogger()
	if err != nil {
		log.Panicf("cannot initialize logger: %+v", err)
	}

	rules, err := LoadRules(config.RulesPath)
	if err != nil {
		return nil, err
	}

	service, err := newGmailService(context.Background(), config)
	if err != nil {
		return nil, err
	}
	logger.Infow("gmail authentication successful")

	if config.TestMode {
		logger.Warnf("running in test mode, no responses will be delivered")
	} else if config.DraftMode {
		logger.Infow("running in draft mode, creating drafts instead of sending")
	}

	return &App{
		config:    config,
		logger:    logger,
		gateway:   newGmailGateway(service, config.MyDomain),
		rules:     rules,
		templates: newTemplateStore(config.TemplatesDir),
	}, nil
}

// Fini flushes buffered log output.
func (app *App) Fini() error {
	return errors.WithStack(app.logger.Sync())
}

func (app *App) recordCycle(seen, responded int, lastCheck time.Time) {
	app.statsMu.Lock()
	defer app.statsMu.Unlock()
	app.stats.Cycles++
	app.stats.Seen += seen
	app.stats.Responded += responded
	app.stats.LastCheck = lastCheck.Format(time.RFC3339)
}

func (app *App) currentStats() Stats {
	app.statsMu.Lock()
	defer app.statsMu.Unlock()
	return app.stats
}

// ValidateSetup checks credentials, the rules document, and every template
// the rules reference. Meant for the -validate entry point.
func ValidateSetup(config *Config) error {
	if _, err := os.Stat(config.CredentialsPath); err != nil {
		return errors.Wrap(err, "gmail credentials file not found")
	}
	if _, err := os.Stat(config.TokenPath); err != nil {
		return errors.Wrap(err, "gmail token file not found")
	}

	rules, err := LoadRules(config.RulesPath)
	if err != nil {
		return err
	}

	store := newTemplateStore(config.TemplatesDir)
	var verr error
	for _, rule := range rules.Rules {
		if ok, reason := store.Validate(rule.ResponseTemplate); !ok {
			verr = appendError(verr, errors.Newf("rule %q: %s", rule.Name, reason))
		}
	}
	return verr
}

// runStatusServer starts the status HTTP server in a separate goroutine.
func runStatusServer(app *App) {
	host := app.config.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := app.config.Port
	if port == 0 {
		port = defaultPort
	}

	router := newRouter(app)

	app.logger.Infow("starting status server",
		"host", host,
		"port", port)

	server := &http.Server{
		Handler:      router,
		Addr:         fmt.Sprintf("%s:%d", host, port),
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
	go func() {
		app.logger.Errorf("status server stopped: %+v",
			errors.WithStack(server.ListenAndServe()))
	}()
}

// newRouter creates and configures the status HTTP router.
func newRouter(app *App) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", app.hHello).Methods("GET")
	router.HandleFunc("/v1/status", app.hStatus).Methods("GET")
	return router
}

// returnJSON writes a JSON response to the HTTP response writer.
func returnJSON(w http.ResponseWriter, val any) {
	js, err := json.Marshal(val)
	if err != nil {
		http.Error(w, jsonParseErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(js)
	if err != nil {
		http.Error(w, jsonParseErrorMessage, http.StatusInternalServerError)
		return
	}
}

func (app *App) hHello(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, map[string]string{"version": "1"})
}

func (app *App) hStatus(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, app.currentStats())
}
