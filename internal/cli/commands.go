package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/watcher"
	"github.com/spf13/cobra"
)

const watchDebounce = 500 * time.Millisecond

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.client.Health(contextOf(cmd))
			if err != nil {
				return err
			}
			cmd.Printf("%s (version %s)\n", resp.Status, resp.Version)
			return nil
		},
	}
}

func newUploadCommand(a *app) *cobra.Command {
	var newSession bool

	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload documents into the current session",
		Long: `Uploads documents into the current session. Without a session the server
starts a new one and its id is remembered for later commands.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if newSession {
				a.sessionID = ""
			}
			return a.upload(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&newSession, "new", false, "start a new session instead of reusing the remembered one")
	return cmd
}

func (a *app) upload(cmd *cobra.Command, paths []string) error {
	resp, err := a.client.Upload(contextOf(cmd), a.sessionID, paths)
	if err != nil {
		return err
	}

	if resp.SessionID != a.settings.SessionID {
		if err := a.remember(resp.SessionID); err != nil {
			return err
		}
	}

	cmd.Printf("Added %d chunks to session %s\n", resp.DocumentsAdded, resp.SessionID)
	return nil
}

func newAskCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the uploaded documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := a.session()
			if err != nil {
				return err
			}

			resp, err := a.client.Ask(contextOf(cmd), sessionID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd, resp)
			}
			printAnswer(cmd, resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output the answer as JSON")
	return cmd
}

func printAnswer(cmd *cobra.Command, resp entity.QueryResponse) {
	cmd.Println(resp.Answer)
	if len(resp.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, s := range resp.Sources {
		cmd.Printf("  [%d] %s, page %d\n", i+1, s.Filename, s.Page)
		if s.Snippet != "" {
			cmd.Printf("      %s\n", s.Snippet)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func newClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all documents of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, err := a.session()
			if err != nil {
				return err
			}

			resp, err := a.client.Clear(contextOf(cmd), sessionID)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d chunks from session %s\n", resp.Deleted, sessionID)
			return nil
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many chunks the current session holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, err := a.session()
			if err != nil {
				return err
			}

			resp, err := a.client.Stats(contextOf(cmd), sessionID)
			if err != nil {
				return err
			}
			cmd.Printf("Session %s holds %d chunks\n", resp.SessionID, resp.Documents)
			return nil
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	var existing bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Upload files as they appear or change in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if existing {
				paths, err := listFiles(dir)
				if err != nil {
					return err
				}
				if len(paths) > 0 {
					if err := a.upload(cmd, paths); err != nil {
						return err
					}
				}
			}

			w, err := watcher.New(watchDebounce, a.logger)
			if err != nil {
				return err
			}
			defer w.Close()

			events, err := w.Watch(ctx, dir)
			if err != nil {
				return err
			}

			cmd.Printf("Watching %s, press Ctrl+C to stop\n", dir)
			a.uploadEach(ctx, cmd, events)
			return nil
		},
	}

	cmd.Flags().BoolVar(&existing, "existing", false, "upload files already in the directory first")
	return cmd
}

// uploadEach uploads every path received until events is closed. A failed
// upload is reported and watching goes on.
func (a *app) uploadEach(ctx context.Context, cmd *cobra.Command, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			cmd.Printf("Uploading %s\n", path)
			if err := a.upload(cmd, []string{path}); err != nil {
				cmd.PrintErrf("Upload of %s failed: %v\n", path, err)
			}
		}
	}
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
