package extract

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/digibook/digimonitor/internal/model"
)

// YouTube selectors, matched against the watch-page layout.
const (
	ytChannelLink    = `//yt-formatted-string[@class="style-scope ytd-channel-name complex-string"]/a`
	ytSubscribers    = `//yt-formatted-string[@class="style-scope ytd-video-owner-renderer"]`
	ytTitle          = `//h1/yt-formatted-string[@class="style-scope ytd-watch-metadata"]`
	ytInfoBold       = `//span[@class="style-scope yt-formatted-string bold"]`
	ytCommentCount   = `//yt-formatted-string[@class="count-text style-scope ytd-comments-header-renderer"]//span[@class="style-scope yt-formatted-string"]`
	ytLikes          = `//button[contains(@class,"yt-spec-button-shape-next--segmented-start")]//div[@class="yt-spec-button-shape-next__button-text-content"]`
	ytDescExpand     = `//tp-yt-paper-button[@id="expand"]`
	ytDescription    = `//yt-attributed-string[@class="style-scope ytd-text-inline-expander"]`
	ytCommentAuthor  = `//div[@id="header-author"]//a`
	ytCommentLikes   = `//span[@id="vote-count-middle"]`
	ytCommentDate    = `//div[@id="header-author"]//yt-formatted-string[@class="published-time-text style-scope ytd-comment-view-model"]//a`
	ytCommentReplies = `//ytd-comment-replies-renderer//yt-formatted-string`
)

// YouTubeExtractor scrapes watch pages: channel metadata, video counters,
// description, and the lazily loaded comment thread.
type YouTubeExtractor struct {
	session *Session
	timeout time.Duration
}

func NewYouTube(session *Session, timeout time.Duration) *YouTubeExtractor {
	return &YouTubeExtractor{session: session, timeout: timeout}
}

func (e *YouTubeExtractor) Name() string             { return "youtube" }
func (e *YouTubeExtractor) Platform() model.Platform { return model.PlatformYouTube }

func (e *YouTubeExtractor) Extract(ctx context.Context, target model.Target) (*model.Payload, error) {
	var (
		channelName, channelID, subscribers string
		title, likes, commentCount, desc    string
		infoBold                            []string
		unavailable                         bool

		authors, commentLikes, dates []string
	)

	err := e.session.Run(ctx, e.timeout,
		chromedp.Navigate(target.URL),
		e.session.SettleAction(),
		pageContains("Video unavailable", &unavailable),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if unavailable {
				return nil
			}
			return chromedp.Tasks{
				textByXPath(ytChannelLink, &channelName),
				attrByXPath(ytChannelLink, "href", &channelID),
				textByXPath(ytSubscribers, &subscribers),
				textByXPath(ytTitle, &title),
				textsByXPath(ytInfoBold, &infoBold),
				textByXPath(ytLikes, &likes),
				clickIfPresent(ytDescExpand),
				textByXPath(ytDescription, &desc),
				scrollToLoad(3, 500*time.Millisecond),
				textByXPath(ytCommentCount, &commentCount),
				textsByXPath(ytCommentAuthor, &authors),
				textsByXPath(ytCommentLikes, &commentLikes),
				textsByXPath(ytCommentDate, &dates),
			}.Do(ctx)
		}),
	)
	if err != nil {
		return nil, err
	}
	if unavailable {
		return nil, Permanentf("youtube: video unavailable: %s", target.URL)
	}
	if title == "" && channelName == "" {
		// Page rendered nothing we recognize; likely throttled or slow.
		return nil, Transientf("youtube: page did not render: %s", target.URL)
	}

	fields := map[string]string{
		"channel_name":      strings.TrimSpace(channelName),
		"id_channel":        channelID,
		"count_subscribers": strings.TrimSpace(subscribers),
		"title":             strings.TrimSpace(title),
		"count_likes":       strings.TrimSpace(likes),
		"count_comment":     strings.TrimSpace(commentCount),
		"description":       strings.TrimSpace(desc),
	}
	// The bold info spans hold views first and upload date third.
	if len(infoBold) > 0 {
		fields["views"] = infoBold[0]
	}
	if len(infoBold) > 2 {
		fields["upload"] = infoBold[2]
	}

	return &model.Payload{
		URL:         target.URL,
		Platform:    model.PlatformYouTube,
		Fields:      fields,
		Comments:    zipComments(authors, nil, commentLikes, nil, dates),
		ExtractedAt: time.Now().UTC(),
	}, nil
}

// zipComments pairs parallel per-comment slices, tolerating ragged lengths
// the way partially rendered threads produce them.
func zipComments(authors, texts, likes, replies, dates []string) []model.Comment {
	n := len(authors)
	if len(texts) > n {
		n = len(texts)
	}
	if n == 0 {
		return nil
	}
	at := func(s []string, i int) string {
		if i < len(s) {
			return s[i]
		}
		return ""
	}
	comments := make([]model.Comment, n)
	for i := range comments {
		comments[i] = model.Comment{
			Author:    at(authors, i),
			Text:      at(texts, i),
			Likes:     at(likes, i),
			Replies:   at(replies, i),
			Published: at(dates, i),
		}
	}
	return comments
}
