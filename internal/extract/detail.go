package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/flamed/internal/providers"
	"github.com/brogergvhs/flamed/internal/timeparse"
)

func detail(root *goquery.Selection, ectx Context) (providers.SeriesDetail, error) {
	d := providers.SeriesDetail{ID: ectx.SeriesID}

	d.Title = fieldText(root, selTitle)
	if d.Title == "" {
		return providers.SeriesDetail{}, missing(KindDetail, "title")
	}

	// Cover is secondary: a series without artwork is still a series.
	if cover := imageSource(resolveField(root, selCover).First()); cover != "" {
		d.Cover = resolveURL(ectx.BaseURL, cover)
	}

	d.Description = fieldText(root, selDescription)
	d.Status = providers.ParseStatus(fieldText(root, selStatus))

	d.Tags = []string{}
	seen := map[string]bool{}
	resolveField(root, selTags).Each(func(_ int, s *goquery.Selection) {
		tag := cleanText(s.Text())
		if tag == "" || seen[strings.ToLower(tag)] {
			return
		}
		seen[strings.ToLower(tag)] = true
		d.Tags = append(d.Tags, tag)
	})

	if m := reNumber.FindString(fieldText(root, selRating)); m != "" {
		d.Rating, _ = strconv.ParseFloat(m, 64)
	}

	return d, nil
}

func chapters(root *goquery.Selection, ectx Context) ([]providers.ChapterRef, error) {
	list := resolveField(root, selChapterList).First()
	if list.Length() == 0 {
		return nil, missing(KindChapters, "chapter list")
	}

	now := ectx.now()
	out := []providers.ChapterRef{}

	var err error
	list.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		href, _ := li.Find("a").First().Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			err = missing(KindChapters, "chapter link")
			return false
		}

		name := fieldText(li, selChapterLabel)
		if name == "" {
			name = cleanText(li.Find("a").First().Text())
		}

		out = append(out, providers.ChapterRef{
			ID:        href,
			Name:      name,
			Ordinal:   chapterOrdinal(li, name),
			Published: timeparse.Parse(fieldText(li, selChapterDate), now),
		})

		return true
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// chapterOrdinal prefers the theme's data-num attribute and falls back to
// the first number in the label.
func chapterOrdinal(li *goquery.Selection, label string) float64 {
	if v, ok := li.Attr("data-num"); ok {
		if m := reNumber.FindString(v); m != "" {
			f, _ := strconv.ParseFloat(m, 64)
			return f
		}
	}

	if m := reNumber.FindString(label); m != "" {
		f, _ := strconv.ParseFloat(m, 64)
		return f
	}

	return 0
}

func chapterImages(root *goquery.Selection, ectx Context) ([]string, error) {
	reader := resolveField(root, selReader).First()
	if reader.Length() == 0 {
		return nil, missing(KindChapterImages, "reader")
	}

	var pages []string
	reader.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := imageSource(img)
		if src == "" {
			return
		}
		pages = append(pages, resolveURL(ectx.BaseURL, src))
	})

	if len(pages) == 0 {
		return nil, missing(KindChapterImages, "pages")
	}

	return pages, nil
}

// traversal reads the rotating path segment from the site logo link. An
// absent logo yields "" so callers fall back to plain /series/ URLs.
func traversal(root *goquery.Selection, ectx Context) string {
	href, _ := resolveField(root, selTraversalLink).First().Attr("href")
	href = strings.TrimSpace(href)
	if ectx.BaseURL != "" {
		href = strings.TrimPrefix(href, strings.TrimRight(ectx.BaseURL, "/"))
	}

	return strings.Trim(href, "/")
}
