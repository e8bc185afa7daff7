package bot

import (
	"fmt"
	"time"
)

const presenceUpdateInterval = 60 * time.Second

func (b *Bot) startPresenceUpdater() {
	if b.presenceStop != nil {
		return
	}
	b.presenceStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(presenceUpdateInterval)
		defer ticker.Stop()

		b.updatePresence()
		for {
			select {
			case <-b.presenceStop:
				return
			case <-ticker.C:
				b.updatePresence()
			}
		}
	}()
}

func (b *Bot) stopPresenceUpdater() {
	if b.presenceStop == nil {
		return
	}
	close(b.presenceStop)
	b.presenceStop = nil
}

func (b *Bot) updatePresence() {
	guildCount := 0
	if b.session.State != nil {
		guildCount = len(b.session.State.Guilds)
	}

	status := fmt.Sprintf("music in %d servers", guildCount)
	if playing := b.manager.PlayerCount(); playing > 0 {
		status = fmt.Sprintf("music in %d/%d servers", playing, guildCount)
	}

	if err := b.session.UpdateListeningStatus(status); err != nil {
		b.logger.WithError(err).Debug("failed to update presence")
	}
}
