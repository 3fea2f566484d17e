// Package cli implements ragctl, a command line client for the document
// Q&A server
package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/futig/docqa-backend/internal/cli/settings"
	"github.com/futig/docqa-backend/internal/client"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNoSession = errors.New("no session: upload files first or pass --session")

// app is the state shared by all commands of one invocation
type app struct {
	configPath string
	serverURL  string
	sessionID  string
	verbose    bool

	settings settings.Settings
	client   *client.Client
	logger   *zap.Logger
}

// NewRootCommand builds the ragctl command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ragctl",
		Short: "Command line client for the document Q&A server",
		Long: `ragctl uploads documents to a document Q&A server and asks questions about them.
The session id returned by the first upload is remembered in the config file
and used by later commands.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default is <user config dir>/ragctl/config.toml)")
	flags.StringVar(&a.serverURL, "server", "", "server URL, overrides the config file")
	flags.StringVarP(&a.sessionID, "session", "s", "", "session id, overrides the remembered one")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log HTTP requests")

	root.AddCommand(
		newHealthCommand(a),
		newUploadCommand(a),
		newAskCommand(a),
		newClearCommand(a),
		newStatsCommand(a),
		newWatchCommand(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.configPath == "" {
		path, err := settings.DefaultPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}

	s, err := settings.Load(a.configPath)
	if err != nil {
		return err
	}
	a.settings = s

	if a.serverURL == "" {
		a.serverURL = s.ServerURL
	}
	if a.sessionID == "" {
		a.sessionID = s.SessionID
	}

	a.logger = zap.NewNop()
	if a.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		a.logger = logger
	}

	timeout := time.Duration(s.TimeoutSeconds) * time.Second
	a.client = client.New(strings.TrimRight(a.serverURL, "/"), timeout, a.logger)

	cmd.SetContext(ctxzap.ToContext(contextOf(cmd), a.logger))
	return nil
}

// session returns the session id commands act on
func (a *app) session() (string, error) {
	if a.sessionID == "" {
		return "", errNoSession
	}
	return a.sessionID, nil
}

// remember persists the session id for later invocations
func (a *app) remember(sessionID string) error {
	a.sessionID = sessionID
	a.settings.SessionID = sessionID
	return settings.Save(a.configPath, a.settings)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
