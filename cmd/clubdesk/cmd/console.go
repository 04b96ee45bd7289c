package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/clubdesk/web"
)

var consoleAddr string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Serve the activity page as a local web console",
	Long: `Serves the activity page on a local address. The console keeps one
session for everyone who opens it, like a browser tab left open in the
staff room.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ConsoleAddr
		if cmd.Flags().Changed("addr") {
			addr = consoleAddr
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.page.Load(cmd.Context())
		console, err := web.New(a.page, web.WithLogger(a.logger))
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}

		server := &http.Server{
			Handler:           console.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("console failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "Console on http://%s (service: %s)\n", ln.Addr(), a.client.BaseURL())

		select {
		case <-cmd.Context().Done():
			fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("console shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVar(&consoleAddr, "addr", "", "Address to listen on (env CLUBDESK_CONSOLE_ADDR)")
}
