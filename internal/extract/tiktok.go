package extract

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/digibook/digimonitor/internal/model"
)

// TikTok selectors. The comment container class carries a style hash that
// changes with site deploys, so containment matches are used where possible.
const (
	tkCaptcha        = `//a[@id="verify-bar-close"]`
	tkLoginWall      = `//div[@id="loginContainer"]`
	tkAuthor         = `//span[@data-e2e="browse-username"]`
	tkCaption        = `//h1[@data-e2e="browse-video-desc"]`
	tkLikeCount      = `//strong[@data-e2e="like-count"]`
	tkCommentCount   = `//strong[@data-e2e="comment-count"]`
	tkShareCount     = `//strong[@data-e2e="share-count"]`
	tkCommentItem    = `//div[contains(@class, "DivCommentItemContainer")]`
	tkCommentAuthor  = tkCommentItem + `//a`
	tkCommentDate    = tkCommentItem + `//span[contains(@class, "SpanCreatedTime")]`
	tkCommentReplies = tkCommentItem + `//p[contains(@class, "PReplyActionText")]`
)

// TikTokExtractor scrapes video pages: author, caption, engagement counters
// and the comment thread. A captcha or login wall means the session is not
// authorized for this content, which no amount of retrying fixes.
type TikTokExtractor struct {
	session *Session
	timeout time.Duration
}

func NewTikTok(session *Session, timeout time.Duration) *TikTokExtractor {
	return &TikTokExtractor{session: session, timeout: timeout}
}

func (e *TikTokExtractor) Name() string             { return "tiktok" }
func (e *TikTokExtractor) Platform() model.Platform { return model.PlatformTikTok }

func (e *TikTokExtractor) Extract(ctx context.Context, target model.Target) (*model.Payload, error) {
	var (
		captchaNodes, loginNodes int
		author, caption          string
		likes, comments, shares  string

		commentAuthors, commentDates, commentReplies []string
	)

	err := e.session.Run(ctx, e.timeout,
		chromedp.Navigate(target.URL),
		e.session.SettleAction(),
		countByXPath(tkCaptcha, &captchaNodes),
		countByXPath(tkLoginWall, &loginNodes),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if captchaNodes > 0 || loginNodes > 0 {
				return nil
			}
			return chromedp.Tasks{
				textByXPath(tkAuthor, &author),
				textByXPath(tkCaption, &caption),
				textByXPath(tkLikeCount, &likes),
				textByXPath(tkCommentCount, &comments),
				textByXPath(tkShareCount, &shares),
				scrollToLoad(3, 500*time.Millisecond),
				textsByXPath(tkCommentAuthor, &commentAuthors),
				textsByXPath(tkCommentDate, &commentDates),
				textsByXPath(tkCommentReplies, &commentReplies),
			}.Do(ctx)
		}),
	)
	if err != nil {
		return nil, err
	}
	if captchaNodes > 0 {
		return nil, Permanentf("tiktok: captcha challenge on %s", target.URL)
	}
	if loginNodes > 0 {
		return nil, Permanentf("tiktok: login required for %s", target.URL)
	}
	if author == "" && caption == "" {
		return nil, Transientf("tiktok: page did not render: %s", target.URL)
	}

	return &model.Payload{
		URL:      target.URL,
		Platform: model.PlatformTikTok,
		Fields: map[string]string{
			"author":        strings.TrimSpace(author),
			"caption":       strings.TrimSpace(caption),
			"count_likes":   strings.TrimSpace(likes),
			"count_comment": strings.TrimSpace(comments),
			"count_shares":  strings.TrimSpace(shares),
		},
		Comments:    zipComments(commentAuthors, nil, nil, commentReplies, commentDates),
		ExtractedAt: time.Now().UTC(),
	}, nil
}
