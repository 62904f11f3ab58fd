package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/drawsim/server"
	"github.com/inference-sim/drawsim/sim"
)

var (
	observeURL      string        // Base URL of a drawsim server
	observeInterval time.Duration // Poll interval
	observeControl  string        // Optional play, pause or reset before following
	observeOnce     bool          // Print available logs and exit
)

// ObserveClient talks to a running `drawsim serve`.
type ObserveClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewObserveClient creates a client for the server at baseURL.
func NewObserveClient(baseURL string) *ObserveClient {
	return &ObserveClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// State fetches the current snapshot.
func (c *ObserveClient) State(ctx context.Context) (sim.Snapshot, error) {
	var snap sim.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/state", &snap)
	return snap, err
}

// Control presses play, pause or reset.
func (c *ObserveClient) Control(ctx context.Context, action string) (sim.Snapshot, error) {
	switch action {
	case "play", "pause", "reset":
	default:
		return sim.Snapshot{}, fmt.Errorf("unknown control %q (want play, pause or reset)", action)
	}
	var snap sim.Snapshot
	err := c.do(ctx, http.MethodPost, "/api/"+action, &snap)
	return snap, err
}

// Logs fetches log lines from index since.
func (c *ObserveClient) Logs(ctx context.Context, since int) (server.LogsResponse, error) {
	var page server.LogsResponse
	q := url.Values{"since": []string{fmt.Sprint(since)}}
	err := c.do(ctx, http.MethodGet, "/api/logs?"+q.Encode(), &page)
	return page, err
}

// Follow prints new log lines to w every interval until ctx is done. It
// returns the index of the next unseen line. A reset on the server, seen as a
// shrinking log, restarts from zero.
func (c *ObserveClient) Follow(ctx context.Context, w io.Writer, since int, interval time.Duration, once bool) (int, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		snap, err := c.State(ctx)
		if err != nil {
			return since, err
		}
		if snap.LogCount < since {
			fmt.Fprintf(w, "--- run %s ---\n", snap.RunID)
			since = 0
		}
		page, err := c.Logs(ctx, since)
		if err != nil {
			return since, err
		}
		for _, line := range page.Lines {
			fmt.Fprintln(w, line)
		}
		since = page.Next
		if once {
			return since, nil
		}
		select {
		case <-ctx.Done():
			return since, nil
		case <-ticker.C:
		}
	}
}

func (c *ObserveClient) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// observeCmd tails the log of a running server
var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Follow the log of a running drawsim server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := NewObserveClient(observeURL)
		if observeControl != "" {
			snap, err := client.Control(ctx, observeControl)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Run %s: generation %d, playing=%v", snap.RunID, snap.Generation, snap.Playing)
		}
		if _, err := client.Follow(ctx, cmd.OutOrStdout(), 0, observeInterval, observeOnce); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	observeCmd.Flags().StringVar(&observeURL, "url", "http://localhost:8080", "Base URL of a drawsim server")
	observeCmd.Flags().DurationVar(&observeInterval, "interval", time.Second, "Poll interval")
	observeCmd.Flags().StringVar(&observeControl, "control", "", "Press play, pause or reset before following")
	observeCmd.Flags().BoolVar(&observeOnce, "once", false, "Print the current log and exit")
	rootCmd.AddCommand(observeCmd)
}
