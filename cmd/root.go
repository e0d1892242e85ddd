/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/blacktop/tootrelay/internal/logutil"
	"github.com/blacktop/tootrelay/internal/relay"
	"github.com/blacktop/tootrelay/internal/relay/bluesky"
	"github.com/blacktop/tootrelay/internal/relay/mastodon"
	"github.com/blacktop/tootrelay/internal/relay/twitter"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// ErrMissingConfig is returned when no configuration file was supplied.
// The caller maps it to a distinct exit code.
var ErrMissingConfig = errors.New("configuration file is required (use --config)")

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tootrelay",
		Short: "Relay Mastodon posts to Twitter/X and Bluesky",
		Long: "tootrelay watches one or more Mastodon accounts and re-posts every " +
			"original public toot to the configured destination platforms in near " +
			"real time, adapting length limits, links, and rich-text facets per platform.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
		Example: `  tootrelay --config relay.json
  tootrelay config > relay.json`,
	}

	cmd.Flags().StringVarP(&configPath, "config", "f", "", "Path to the JSON configuration file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Enable debug logging")
	cmd.Flags().SortFlags = false

	cmd.AddCommand(newConfigCommand())

	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	logutil.SetVerbose(verbose)

	if configPath == "" {
		return ErrMissingConfig
	}

	cfg, err := relay.LoadConfig(configPath)
	if err != nil {
		return err
	}

	workers, err := buildWorkers(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	return relay.NewService(workers).Run()
}

func buildWorkers(ctx context.Context, cfg *relay.Config) ([]*relay.Worker, error) {
	workers := make([]*relay.Worker, 0, len(cfg.Accounts))
	for i := range cfg.Accounts {
		w, err := buildWorker(ctx, &cfg.Accounts[i], cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		workers = append(workers, w)
	}
	return workers, nil
}

func buildWorker(ctx context.Context, acct *relay.AccountConfig, timeout time.Duration) (*relay.Worker, error) {
	source, err := mastodon.New(ctx, acct.Mastodon)
	if err != nil {
		return nil, err
	}

	// One client per account for downloads and destination calls. The
	// streaming connection is long-lived and managed separately by the
	// source, so it carries no overall timeout.
	httpClient := &http.Client{Timeout: timeout}

	var posters []relay.Poster
	if acct.Twitter != nil {
		p, err := twitter.New(acct.Twitter, acct.Prefix, httpClient)
		if err != nil {
			return nil, err
		}
		posters = append(posters, p)
	}
	if acct.Bluesky != nil {
		p, err := bluesky.New(ctx, acct.Bluesky, acct.Prefix, httpClient)
		if err != nil {
			return nil, err
		}
		posters = append(posters, p)
	}

	name := source.Username()
	dispatcher := relay.NewDispatcher(
		name,
		source.AccountID(),
		relay.NewFetcher(httpClient),
		relay.NewSanitizer(acct.Replace),
		posters,
	)
	return relay.NewWorker(name, source, dispatcher), nil
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Print(relay.Defaults)
			return nil
		},
	}
}
