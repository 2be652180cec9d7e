package app

import "playtesting-bot/internal/domain"

// ChannelDirectory answers which configured role a channel plays on a server.
type ChannelDirectory struct {
	byChannel map[string]domain.ServerChannel
	echo      map[string]string
}

func NewChannelDirectory(channels []domain.ServerChannel) *ChannelDirectory {
	d := &ChannelDirectory{
		byChannel: make(map[string]domain.ServerChannel, len(channels)),
		echo:      make(map[string]string),
	}
	for _, c := range channels {
		if c.Type == domain.ChannelEcho {
			d.echo[c.ServerID] = c.ChannelID
			continue
		}
		d.byChannel[c.ServerID+"/"+c.ChannelID] = c
	}
	return d
}

// ResultChannel returns the results channel mapped to a playtesting channel.
func (d *ChannelDirectory) ResultChannel(serverID, channelID string) (string, bool) {
	c, ok := d.byChannel[serverID+"/"+channelID]
	if !ok || c.Type != domain.ChannelPlaytesting || c.ResultChannelID == "" {
		return "", false
	}
	return c.ResultChannelID, true
}

func (d *ChannelDirectory) IsPlaytesting(serverID, channelID string) bool {
	c, ok := d.byChannel[serverID+"/"+channelID]
	return ok && c.Type == domain.ChannelPlaytesting
}

func (d *ChannelDirectory) IsReacts(serverID, channelID string) bool {
	c, ok := d.byChannel[serverID+"/"+channelID]
	return ok && c.Type == domain.ChannelReacts
}

// EchoChannel is where packet tallies are published for a server.
func (d *ChannelDirectory) EchoChannel(serverID string) (string, bool) {
	id, ok := d.echo[serverID]
	return id, ok
}
