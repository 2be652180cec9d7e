package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"playtesting-bot/internal/app"
	"playtesting-bot/internal/config"
	"playtesting-bot/internal/infra/discord"
	"playtesting-bot/internal/logger"
	transport "playtesting-bot/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand that connects the bot.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Connect to Discord and serve the live results feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, nil)

	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token not configured")
	}
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	chat := discord.NewChat(dg)
	emojis, invalidate := st.emojiResolver(cfg, discord.NewEmojiLoader(dg))
	channels := app.NewChannelDirectory(cfg.Channels())
	hub := app.NewDigestHub()

	registration := app.NewRegistrationService(st.questions, st.packets, chat, channels, emojis, st.sealer, log)
	summaries := app.NewSummarizer(chat, st.questions, st.results, emojis, hub, log)
	playtest := app.NewPlaytestService(st.sessions, app.NewRecorder(st.results, st.sealer), summaries, registration, chat, channels, emojis, log)
	tally := app.NewTallyService(st.packets, chat, emojis, cfg.Tally.Concurrency, log)
	packets := app.NewPacketService(st.packets, tally, chat, channels, config.TTLDuration(cfg.Tally.Timeout, 0), log)

	discord.NewRouter(playtest, registration, packets, chat, invalidate, log).Attach(dg)
	if err := dg.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer dg.Close()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(hub, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("serving live results feed")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
