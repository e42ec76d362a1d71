package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Helpers shared by the platform extractors. Page scraping is best-effort:
// a missing element leaves its field empty instead of failing the target,
// mirroring how selector drift is tolerated on these sites.

// textByXPath writes the text of the first node matching xp into out, or
// leaves out untouched when nothing matches.
func textByXPath(xp string, out *string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(xp, &nodes, chromedp.BySearch, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil
		}
		return chromedp.Text(nodes[0].FullXPath(), out, chromedp.BySearch).Do(ctx)
	})
}

// textsByXPath collects the text of every node matching xp.
func textsByXPath(xp string, out *[]string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(xp, &nodes, chromedp.BySearch, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		for _, n := range nodes {
			var txt string
			if err := chromedp.Text(n.FullXPath(), &txt, chromedp.BySearch).Do(ctx); err != nil {
				return err
			}
			if txt = strings.TrimSpace(txt); txt != "" {
				*out = append(*out, txt)
			}
		}
		return nil
	})
}

// countByXPath writes the number of nodes matching xp into out.
func countByXPath(xp string, out *int) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(xp, &nodes, chromedp.BySearch, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		*out = len(nodes)
		return nil
	})
}

// attrByXPath writes an attribute of the first node matching xp into out.
func attrByXPath(xp, name string, out *string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(xp, &nodes, chromedp.BySearch, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil
		}
		if v, ok := nodes[0].Attribute(name); ok {
			*out = v
		}
		return nil
	})
}

// clickIfPresent clicks the first node matching xp when it exists (e.g. the
// "...more" description expander).
func clickIfPresent(xp string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(xp, &nodes, chromedp.BySearch, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil
		}
		return chromedp.MouseClickNode(nodes[0]).Do(ctx)
	})
}

// pageContains evaluates whether the rendered page text includes marker.
func pageContains(marker string, out *bool) chromedp.Action {
	expr := fmt.Sprintf(`document.body ? document.body.innerText.includes(%q) : false`, marker)
	return chromedp.Evaluate(expr, out)
}

// scrollToLoad scrolls the page in small steps until its height stops
// growing, loading lazily rendered content such as comment threads. Stops
// after maxStable consecutive height checks without growth.
func scrollToLoad(maxStable int, pause time.Duration) chromedp.Action {
	const heightExpr = `Math.max(document.body.scrollHeight, document.body.offsetHeight,
		document.documentElement.clientHeight, document.documentElement.scrollHeight,
		document.documentElement.offsetHeight)`

	return chromedp.ActionFunc(func(ctx context.Context) error {
		var prev float64
		if err := chromedp.Evaluate(heightExpr, &prev).Do(ctx); err != nil {
			return err
		}

		stable := 0
		for stable < maxStable {
			for i := 0; i < 5; i++ {
				if err := chromedp.Evaluate(`window.scrollBy(0, 449)`, nil).Do(ctx); err != nil {
					return err
				}
				if err := chromedp.Sleep(pause).Do(ctx); err != nil {
					return err
				}
			}
			if err := chromedp.Evaluate(`window.scrollBy(0, -169)`, nil).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Sleep(pause).Do(ctx); err != nil {
				return err
			}

			var h float64
			if err := chromedp.Evaluate(heightExpr, &h).Do(ctx); err != nil {
				return err
			}
			if h == prev {
				stable++
			} else {
				prev = h
				stable = 0
			}
		}
		return nil
	})
}
