package cli

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"playtesting-bot/internal/app"
	"playtesting-bot/internal/config"
	"playtesting-bot/internal/infra/discord"
	"playtesting-bot/internal/logger"
)

// NewTallyCmd tallies reactions on a packet without starting the gateway.
func NewTallyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tally <server> <packet|all>",
		Short: "Tally reactions on a packet's questions into its echo messages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, nil)

			st, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.close()

			dg, err := discordgo.New("Bot " + cfg.Discord.Token)
			if err != nil {
				return fmt.Errorf("discord session: %w", err)
			}
			me, err := dg.User("@me", discordgo.WithContext(ctx))
			if err != nil {
				return fmt.Errorf("identify bot: %w", err)
			}
			dg.State.User = me

			chat := discord.NewChat(dg)
			emojis, _ := st.emojiResolver(cfg, discord.NewEmojiLoader(dg))
			tally := app.NewTallyService(st.packets, chat, emojis, cfg.Tally.Concurrency, log)

			serverID, packet := args[0], args[1]
			var reports []app.TallyReport
			if strings.EqualFold(packet, "all") {
				reports, err = tally.TallyAll(ctx, serverID, "")
			} else {
				var r app.TallyReport
				r, err = tally.Tally(ctx, serverID, packet, "")
				reports = append(reports, r)
			}
			for _, r := range reports {
				fmt.Fprintf(cmd.OutOrStdout(), "packet %s: tallied %d of %d question%s\n", r.Packet, r.Tallied, r.Total, pluralS(r.Total))
			}
			return err
		},
	}
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
