package scrape

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var containerSelectors = []string{
	`[itemprop="articleBody"]`,
	".article-body",
	".entry-content",
	".post-content",
	"article",
}

const noiseSelectors = "script, style, noscript, iframe, aside, .ad, .ads, .advert, .advertisement, .related, .related-posts, .sharedaddy"

var (
	lazyAttrs   = []string{"data-src", "data-lazy-src", "data-original"}
	srcsetAttrs = []string{"srcset", "data-srcset"}
	denylist    = []string{"avatar", "logo", "icon", "gravatar", "emoji", "favicon"}
)

// bodyImages returns unique absolute image URLs in document order.
func bodyImages(container *goquery.Selection, base *url.URL, imageSelector string) []string {
	sel := strings.TrimSpace(imageSelector)
	if sel == "" {
		sel = "img"
	}

	var (
		images []string
		seen   = map[string]struct{}{}
	)
	container.Find(sel).Each(func(_ int, img *goquery.Selection) {
		candidate := bestSource(img)
		if candidate == "" {
			return
		}
		resolved, ok := resolve(base, candidate)
		if !ok || rejected(resolved) {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		images = append(images, resolved)
	})
	return images
}

// bestSource prefers lazy-load attributes, then the widest srcset
// candidate, then src.
func bestSource(img *goquery.Selection) string {
	for _, attr := range lazyAttrs {
		if v := usable(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	for _, attr := range srcsetAttrs {
		if v := usable(largestCandidate(img.AttrOr(attr, ""))); v != "" {
			return v
		}
	}
	return usable(img.AttrOr("src", ""))
}

func usable(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(strings.ToLower(v), "data:") {
		return ""
	}
	return v
}

// largestCandidate parses "url 480w, url2 800w" and keeps the widest entry.
// Entries without a descriptor count as zero; ties keep the first.
func largestCandidate(srcset string) string {
	var (
		best      string
		bestWidth = -1.0
	)
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		width := 0.0
		if len(fields) > 1 {
			desc := strings.ToLower(fields[1])
			desc = strings.TrimRight(desc, "wx")
			if v, err := strconv.ParseFloat(desc, 64); err == nil {
				width = v
			}
		}
		if width > bestWidth {
			best, bestWidth = fields[0], width
		}
	}
	return best
}

func resolve(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

// rejected filters vector graphics and avatar/logo style noise.
func rejected(absolute string) bool {
	u, err := url.Parse(absolute)
	if err != nil {
		return true
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == ".svg" || ext == ".svgz" {
		return true
	}
	target := strings.ToLower(u.Path + "?" + u.RawQuery)
	for _, word := range denylist {
		if strings.Contains(target, word) {
			return true
		}
	}
	return false
}
