package cmd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/staffguard/httpapi"
	"github.com/MrEthical07/staffguard/metrics/export/prometheus"
	"github.com/MrEthical07/staffguard/sessiontoken"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		sweepEvery time.Duration
		metrics    bool
	)

	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the staff authentication API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			tokens, err := newTokenManager(a)
			if err != nil {
				return err
			}

			api := httpapi.New(a.engine, tokens, httpapi.Options{
				CookieName:   a.cfg.CookieName,
				CookieSecure: a.cfg.CookieSecure,
				Log:          a.log,
				Health:       a.ping,
			})

			r := api.Router()
			if metrics {
				r.Handle("/metrics", prometheus.New(a.engine).Handler())
			}

			server := &http.Server{
				Addr:              a.cfg.HTTPAddr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if a.cfg.StoreBackend == "sql" && sweepEvery > 0 {
				go sweepIdleSessions(ctx, a, sweepEvery)
			}

			done := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					done <- fmt.Errorf("server failed: %w", err)
					return
				}
				done <- nil
			}()
			a.log.WithField("addr", a.cfg.HTTPAddr).Info("staffguard listening")

			select {
			case <-ctx.Done():
				a.log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				return nil
			case err := <-done:
				return err
			}
		},
	}

	c.Flags().DurationVar(&sweepEvery, "sweep-interval", 5*time.Minute, "how often idle sessions are purged from the SQL store (0 disables)")
	c.Flags().BoolVar(&metrics, "metrics", true, "serve Prometheus metrics on /metrics")
	return c
}

func newTokenManager(a *app) (*sessiontoken.Manager, error) {
	secret := []byte(a.cfg.TokenSecret)
	if len(secret) == 0 {
		// Validation already rejects this in production.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		a.log.Warn("TOKEN_SECRET not set; using an ephemeral key, sessions will not survive a restart")
	}
	return sessiontoken.NewManager(sessiontoken.Config{
		SigningMethod: sessiontoken.MethodHS256,
		PrivateKey:    secret,
		Issuer:        "staffguard",
		Leeway:        5 * time.Second,
	})
}

// sweepIdleSessions deletes SQL rows that have been idle past the timeout.
// Redis expires keys on its own.
func sweepIdleSessions(ctx context.Context, a *app, every time.Duration) {
	idle, err := a.cfg.IdleTimeout()
	if err != nil || idle <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := a.store.DeleteIdleBefore(ctx, now.Add(-idle))
			if err != nil {
				a.log.WithError(err).Error("sweep idle sessions")
				continue
			}
			if n > 0 {
				a.log.WithFields(logrus.Fields{"deleted": n}).Debug("swept idle sessions")
			}
		}
	}
}
