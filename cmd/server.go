package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend/database"
	"backend/scheduler"
	"backend/server"
	"backend/services"
	"backend/services/facebook"
	"backend/services/github"
	"backend/services/gitlab"
	"backend/services/google"
	"backend/services/microsoft"
	"backend/services/reddit"
	"backend/services/slack"
	"backend/services/spotify"
	"backend/services/timer"
	"backend/services/twitch"

	"github.com/urfave/cli/v3"
)

// serviceConstructors lists every integration module the server registers.
// Adding a provider means adding its constructor here.
var serviceConstructors = []func() *services.Service{
	facebook.New,
	github.New,
	gitlab.New,
	google.New,
	microsoft.New,
	reddit.New,
	slack.New,
	spotify.New,
	timer.New,
	twitch.New,
}

func BuildRegistry() (*services.Registry, error) {
	registry := services.NewRegistry()
	for _, construct := range serviceConstructors {
		if err := registry.Register(construct()); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func ServerCli() *cli.Command {
	cmd := &cli.Command{
		Name:  "server",
		Usage: "run the automation backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Sources: cli.EnvVars("DB_BACKEND"),
				Name:    "db-backend",
				Aliases: []string{"db"},
				Value:   "sqlite",
				Usage:   "database driver to use",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("DB_PATH"),
				Name:    "db-path",
				Aliases: []string{"dp"},
				Value:   "data.db",
				Usage:   "For sqlite the path to the database file",
			},
			&cli.BoolFlag{
				Sources: cli.EnvVars("DEBUG"),
				Name:    "debug",
				Aliases: []string{"d"},
				Value:   false,
				Usage:   "enable debug mode",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("HOST"),
				Name:    "host",
				Aliases: []string{"b"},
				Value:   "127.0.0.1",
				Usage:   "server bind address",
			},
			&cli.BoolFlag{
				Sources: cli.EnvVars("SSL"),
				Name:    "ssl",
				Aliases: []string{"s"},
				Value:   false,
				Usage:   "enable ssl",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("SSL_CERT"),
				Name:    "ssl-cert",
				Value:   "",
				Usage:   "path to the TLS certificate, used with --ssl",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("SSL_KEY"),
				Name:    "ssl-key",
				Value:   "",
				Usage:   "path to the TLS private key, used with --ssl",
			},
			&cli.IntFlag{
				Sources: cli.EnvVars("PORT"),
				Name:    "port",
				Aliases: []string{"p"},
				Value:   1984,
				Usage:   "server port",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("FRONTEND_URL"),
				Name:    "frontend-url",
				Value:   "http://localhost:3000",
				Usage:   "frontend base URL for terminal OAuth redirects",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("MOBILE_CALLBACK_URL"),
				Name:    "mobile-callback-url",
				Value:   "",
				Usage:   "deep link mobile flows are redirected to",
			},
			&cli.StringFlag{
				Sources: cli.EnvVars("COOKIE_DOMAIN"),
				Name:    "cookie-domain",
				Value:   "",
				Usage:   "domain for the session cookie",
			},
			&cli.DurationFlag{
				Sources: cli.EnvVars("OAUTH_STATE_TTL"),
				Name:    "oauth-state-ttl",
				Value:   10 * time.Minute,
				Usage:   "how long a pending OAuth flow stays valid",
			},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			DB := database.SetupDatabase(c.String("db-backend"), c.String("db-path"), c.Bool("debug"))

			registry, err := BuildRegistry()
			if err != nil {
				return err
			}

			manager := services.NewSubscriptionManager(registry)
			states := services.NewStateStore(c.Duration("oauth-state-ttl"))

			schedulerService := scheduler.NewSchedulerService(DB, registry, states)
			schedulerService.RegisterTasks()
			schedulerService.Start()
			defer schedulerService.Stop()

			deps := server.RouterDeps{
				Registry:          registry,
				Manager:           manager,
				States:            states,
				FrontendURL:       c.String("frontend-url"),
				MobileCallbackURL: c.String("mobile-callback-url"),
				CookieDomain:      c.String("cookie-domain"),
			}

			s, fullHost := server.BackendServer(DB, deps, c.String("host"), c.Int("port"), c.Bool("ssl"))
			server.ServerStatus = "running"
			fmt.Printf("Starting server on %s\n", fullHost)

			if c.Bool("ssl") {
				err = s.ListenAndServeTLS(c.String("ssl-cert"), c.String("ssl-key"))
			} else {
				err = s.ListenAndServe()
			}
			if err != nil {
				log.Printf("Server stopped: %v", err)
			}

			return nil
		},
	}

	return cmd
}
