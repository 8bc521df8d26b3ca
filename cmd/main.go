package main

import (
	"context"
	"os"
	"time"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/repositories"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// genreCacheMaxAge bounds how long cached artist genre sets stay fresh.
const genreCacheMaxAge = 7 * 24 * time.Hour

func main() {
	godotenv.Load()
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	applyEnvOverrides(config)

	var spotifyService services.Service
	var lookup catalog.GenreLookup

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			spotifyService = svc
			if config.Credentials.Spotify.AccessToken != "" {
				if err := svc.Authenticate(context.Background(), config.Credentials.Spotify.Map()); err != nil {
					logger.Warn("stored token rejected", "error", err)
				}
			}
			lookup = svc.ArtistGenres
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifyService,
		Lookup:  lookup,
		Logger:  logger,
	})

	// Route genre lookups through the local cache when the database exists.
	if _, err := os.Stat(config.Database.Path); err == nil && spotifyService != nil {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			repo := repositories.NewGenreCacheRepository(db)
			runner = NewRunner(RunnerOpts{
				Config:  config,
				Spotify: spotifyService,
				DB:      db,
				Lookup:  repositories.CachedGenreLookup(repo, spotifyService.ArtistGenres, genreCacheMaxAge),
				Logger:  logger,
			})
			defer db.Close()
		}
	}

	app := &cli.Command{
		Name:     "shelf",
		Usage:    "Organize your Spotify library into genre playlists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// applyEnvOverrides lets .env credentials take precedence over config.toml.
func applyEnvOverrides(config *shared.Config) {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		config.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		config.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		config.Credentials.Spotify.RedirectURI = v
	}
}
