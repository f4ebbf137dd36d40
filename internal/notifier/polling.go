package notifier

import (
	"context"
	"strconv"
	"strings"
	"time"

	"ZoneBacktester/internal/logger"
)

// CommandHandler answers a chat command. An empty reply sends nothing.
type CommandHandler func(command string) string

const (
	longPollSeconds = 25
	pollRetryDelay  = 5 * time.Second
)

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// Listen long-polls getUpdates and hands every text message from the
// configured chat to handler. Messages from other chats are dropped. It
// returns when ctx is cancelled.
func (t *TelegramNotifier) Listen(ctx context.Context, handler CommandHandler) {
	var offset int64
	for ctx.Err() == nil {
		var batch []update
		err := t.call(ctx, "getUpdates", map[string]any{
			"offset":          offset,
			"timeout":         longPollSeconds,
			"allowed_updates": []string{"message"},
		}, &batch)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warnf("telegram getUpdates: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range batch {
			offset = u.UpdateID + 1
			if u.Message == nil || strconv.FormatInt(u.Message.Chat.ID, 10) != t.ChatID {
				continue
			}
			cmd := strings.TrimSpace(u.Message.Text)
			if cmd == "" {
				continue
			}
			logger.Infof("telegram command %q", cmd)
			reply := handler(cmd)
			if reply == "" {
				continue
			}
			if err := t.Notify(ctx, reply); err != nil {
				logger.Errorf("telegram reply to %q: %v", cmd, err)
			}
		}
	}
	logger.Infof("telegram listener stopped")
}
