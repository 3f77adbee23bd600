package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/flamed/internal/providers"
	"github.com/brogergvhs/flamed/internal/timeparse"
)

// Home section ids that have a view-more listing.
const (
	SectionLatest  = "2"
	SectionPopular = "3"
)

func listing(root *goquery.Selection, kind Kind, ectx Context) ([]providers.Tile, error) {
	out := []providers.Tile{}

	var err error
	resolveField(root, selTiles).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		var t providers.Tile
		t, err = tile(a, kind, ectx)
		if err != nil {
			return false
		}
		out = append(out, t)
		return true
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// tile reads one listing entry. a is the anchor wrapping the entry, or any
// node that contains one.
func tile(a *goquery.Selection, kind Kind, ectx Context) (providers.Tile, error) {
	link := a
	if !a.Is("a") {
		link = a.Find("a").First()
	}

	href, _ := link.Attr("href")
	id := seriesIDFromHref(ectx.BaseURL, href)
	if id == "" {
		return providers.Tile{}, missing(kind, "id")
	}

	title := cleanText(link.AttrOr("title", ""))
	if title == "" {
		title = fieldText(a, selTileTitle)
	}
	img := resolveField(a, selTileCover).First()
	if title == "" {
		title = cleanText(img.AttrOr("alt", ""))
	}
	if title == "" {
		return providers.Tile{}, missing(kind, "title")
	}

	cover := imageSource(img)
	if cover != "" {
		cover = resolveURL(ectx.BaseURL, cover)
	}

	return providers.Tile{
		ID:       id,
		Title:    title,
		Cover:    cover,
		Subtitle: fieldText(a, selTileSubtxt),
	}, nil
}

func homeSections(root *goquery.Selection, ectx Context) ([]providers.HomeSection, error) {
	var (
		out  []providers.HomeSection
		err  error
		used = map[string]bool{}
	)

	resolveField(root, selSections).EachWithBreak(func(i int, block *goquery.Selection) bool {
		anchors := resolveField(block, selSectionTiles)
		if anchors.Length() == 0 {
			return true
		}

		title := fieldText(block, selSectionHead)
		if title == "" {
			err = missing(KindHome, "section title")
			return false
		}

		sec := providers.HomeSection{
			ID:    sectionID(title),
			Title: title,
			Tiles: []providers.Tile{},
		}
		if used[sec.ID] {
			sec.ID += "-" + strconv.Itoa(i)
		}
		used[sec.ID] = true
		sec.ViewMore = sec.ID == SectionLatest || sec.ID == SectionPopular

		anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
			var t providers.Tile
			t, err = tile(tileNode(a), KindHome, ectx)
			if err != nil {
				return false
			}
			sec.Tiles = append(sec.Tiles, t)
			return true
		})
		if err != nil {
			return false
		}

		out = append(out, sec)
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, missing(KindHome, "sections")
	}

	return out, nil
}

// tileNode widens an anchor from the latest-updates block to its .uta
// container so the title and chapter label next to it are in scope.
func tileNode(a *goquery.Selection) *goquery.Selection {
	if uta := a.Closest(".uta"); uta.Length() > 0 {
		return uta
	}
	return a
}

func sectionID(title string) string {
	t := strings.ToLower(title)

	switch {
	case strings.Contains(t, "latest update"):
		return SectionLatest
	case strings.HasPrefix(t, "popular") && !strings.Contains(t, "today"):
		return SectionPopular
	default:
		return slug(title)
	}
}

func updates(root *goquery.Selection, ectx Context) (UpdatePage, error) {
	entries := resolveField(root, selUpdateTiles)
	if entries.Length() == 0 {
		return UpdatePage{}, missing(KindUpdates, "latest updates")
	}

	now := ectx.now()
	page := UpdatePage{IDs: []providers.SeriesID{}, Continue: true}
	matched := map[providers.SeriesID]bool{}

	var err error
	entries.EachWithBreak(func(_ int, uta *goquery.Selection) bool {
		href, _ := resolveField(uta, selUpdateLink).First().Attr("href")
		id := seriesIDFromHref(ectx.BaseURL, href)
		if id == "" {
			err = missing(KindUpdates, "id")
			return false
		}

		updated := timeparse.Parse(fieldText(uta, selUpdateTime), now)
		if updated.Before(ectx.Since) {
			page.Continue = false
			return false
		}

		if _, ok := ectx.Known[id]; ok || matched[id] {
			return true
		}
		matched[id] = true
		page.IDs = append(page.IDs, id)

		return true
	})
	if err != nil {
		return UpdatePage{}, err
	}

	return page, nil
}
