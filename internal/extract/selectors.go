package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/flamed/internal/providers"
)

// Candidate selectors per field, most specific first. The site has shipped
// several theme revisions, so a new layout only needs an extra entry here.
var (
	selTitle       = []string{"h1.entry-title", ".seriestuheader h1", ".info-right h1"}
	selCover       = []string{".thumb img", ".thumbook img", "meta[property='og:image']"}
	selDescription = []string{".entry-content[itemprop=description]", ".summary .wd-full", ".synp .entry-content"}
	selStatus      = []string{`.tsinfo .imptdt:contains("Status") i`, ".status i"}
	selTags        = []string{".mgen a", ".genres-container a"}
	selRating      = []string{".rating .num", "[itemprop=ratingValue]"}

	selChapterList  = []string{"#chapterlist", ".eplister"}
	selChapterLabel = []string{".chapternum", ".eph-num a"}
	selChapterDate  = []string{".chapterdate"}

	selReader = []string{"#readerarea", ".reader-area", ".rdminimal"}

	selTiles      = []string{".listupd .bs .bsx a", ".listupd .bsx a"}
	selTileTitle  = []string{".tt", ".luf h4", "h4"}
	selTileCover  = []string{"img"}
	selTileSubtxt = []string{".epxs", ".luf li a"}

	selSections      = []string{".bixbox"}
	selSectionHead   = []string{".releases h2", ".releases h3", "h2"}
	selSectionTiles  = []string{".bsx a", ".uta .imgu a"}
	selUpdateTiles   = []string{".listupd .utao .uta", ".utao .uta"}
	selUpdateLink    = []string{".imgu a", ".luf a.series", "a"}
	selUpdateTime    = []string{".luf li span", ".luf span"}
	selTraversalLink = []string{".flame-logo .logo a", ".logo a"}
)

// imageAttrs lists where lazy-loading themes keep the real image URL.
var imageAttrs = []string{"data-src", "data-lazy-src", "src", "content"}

var (
	reNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
	reSpaces = regexp.MustCompile(`\s+`)
)

// resolveField returns the first non-empty match of candidates under root.
func resolveField(root *goquery.Selection, candidates []string) *goquery.Selection {
	for _, c := range candidates {
		if sel := root.Find(c); sel.Length() > 0 {
			return sel
		}
	}

	return root.Find("__none__")
}

func cleanText(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func fieldText(root *goquery.Selection, candidates []string) string {
	return cleanText(resolveField(root, candidates).First().Text())
}

func imageSource(sel *goquery.Selection) string {
	for _, a := range imageAttrs {
		if v, ok := sel.Attr(a); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

func resolveURL(baseURL, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw
	}

	b, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return raw
	}

	return b.ResolveReference(u).String()
}

// seriesIDFromHref strips the base URL, any "<traversal>/series/" prefix and
// trailing slashes from a series link, leaving the slug.
func seriesIDFromHref(baseURL, href string) providers.SeriesID {
	p := strings.TrimSpace(href)
	if baseURL != "" {
		p = strings.TrimPrefix(p, strings.TrimRight(baseURL, "/"))
	}

	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}

	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "series/"); i >= 0 {
		p = p[i+len("series/"):]
	}

	return providers.SeriesID(strings.Trim(p, "/"))
}

func slug(s string) string {
	var b strings.Builder
	dash := false

	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}
