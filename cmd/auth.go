package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/desertthunder/twhispr/internal/server"
	"github.com/desertthunder/twhispr/internal/services"
	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// authCommand logs in through the browser
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in through the browser and save the access token to the config file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening it",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Print the access token instead of saving it",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 2 * time.Minute,
			},
		},
		Action: r.Auth,
	}
}

// Auth runs the authorization code flow against a local callback server.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(false)
	if err != nil {
		return err
	}

	creds := config.Credentials.SoundCloud
	redirect, err := url.Parse(creds.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: redirect_uri must be an absolute http URL, got %q", shared.ErrInvalidConfig, creds.RedirectURI)
	}

	svc, err := services.NewSoundCloudService(services.SoundCloudOpts{
		Credentials: creds,
		HTTPClient:  r.httpClient,
		Observer:    r.observers(),
	})
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	verifier := oauth2.GenerateVerifier()
	authURL, err := svc.AuthCodeURL(state, verifier)
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(func(ctx context.Context, code string) (*oauth2.Token, error) {
		return svc.Exchange(ctx, code, verifier)
	}, state, redirect.Path)

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	addr := redirect.Host
	if redirect.Port() == "" {
		addr = net.JoinHostPort(redirect.Hostname(), "80")
	}

	srv, err := server.Start(addr, router)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			r.logger.Warn("error shutting down callback server", "error", err)
		}
	}()
	r.logger.Debug("waiting for callback", "addr", srv.Addr(), "path", handler.Routes()[0])

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	} else if err := shared.OpenBrowser(ctx, authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	}

	timeout := time.NewTimer(cmd.Duration("timeout"))
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-srv.Errors():
		return fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: no callback within %s", shared.ErrAuthFailed, cmd.Duration("timeout"))
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := result.Error(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if cmd.Bool("no-save") {
		return r.writePlain("%s\n", result.Token.AccessToken)
	}

	config.Credentials.SoundCloud.AccessToken = result.Token.AccessToken
	if err := shared.SaveConfig(r.configPath, config); err != nil {
		return err
	}

	r.logger.Info("access token saved", "path", r.configPath)
	return r.writePlain("✓ Authorization successful, token saved to %s\n", r.configPath)
}
