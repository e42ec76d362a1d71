package extract

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/digibook/digimonitor/internal/model"
)

// Twitch selectors, matched against the channel-page layout.
const (
	twViewers     = `//p[@data-a-target="animated-channel-viewers-count"]`
	twLiveTime    = `//span[@class="live-time"]`
	twStreamTitle = `//h2[@data-a-target="stream-title"]`
	twChatAuthor  = `//span[@data-a-target="chat-message-username"]`
	twChatText    = `//span[@data-a-target="chat-message-text"]`
)

// TwitchExtractor samples a live channel: viewer count, uptime, stream title
// and a window of chat messages. An offline channel is a permanent failure,
// there is nothing to sample.
type TwitchExtractor struct {
	session *Session
	timeout time.Duration
	// chatWindow is how long chat is left to accumulate before capture.
	chatWindow time.Duration
}

func NewTwitch(session *Session, timeout, chatWindow time.Duration) *TwitchExtractor {
	if chatWindow <= 0 {
		chatWindow = 10 * time.Second
	}
	return &TwitchExtractor{session: session, timeout: timeout, chatWindow: chatWindow}
}

func (e *TwitchExtractor) Name() string             { return "twitch" }
func (e *TwitchExtractor) Platform() model.Platform { return model.PlatformTwitch }

func (e *TwitchExtractor) Extract(ctx context.Context, target model.Target) (*model.Payload, error) {
	var (
		offline                    bool
		viewers, liveTime, title   string
		chatAuthors, chatMessages  []string
	)

	err := e.session.Run(ctx, e.timeout,
		chromedp.Navigate(target.URL),
		e.session.SettleAction(),
		pageContains("is offline", &offline),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if offline {
				return nil
			}
			return chromedp.Tasks{
				textByXPath(twStreamTitle, &title),
				textByXPath(twViewers, &viewers),
				textByXPath(twLiveTime, &liveTime),
				chromedp.Sleep(e.chatWindow),
				textsByXPath(twChatAuthor, &chatAuthors),
				textsByXPath(twChatText, &chatMessages),
			}.Do(ctx)
		}),
	)
	if err != nil {
		return nil, err
	}
	if offline {
		return nil, Permanentf("twitch: channel is offline: %s", target.URL)
	}
	if viewers == "" && title == "" && len(chatMessages) == 0 {
		return nil, Transientf("twitch: page did not render: %s", target.URL)
	}

	return &model.Payload{
		URL:      target.URL,
		Platform: model.PlatformTwitch,
		Fields: map[string]string{
			"title":     strings.TrimSpace(title),
			"views":     strings.TrimSpace(viewers),
			"time_live": strings.TrimSpace(liveTime),
		},
		Comments:    zipComments(chatAuthors, chatMessages, nil, nil, nil),
		ExtractedAt: time.Now().UTC(),
	}, nil
}
