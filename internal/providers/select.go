package providers

import (
	"strconv"
	"strings"
)

// Label renders the chapter ordinal the way users type it ("12", "12.5").
func (c ChapterRef) Label() string {
	return strconv.FormatFloat(c.Ordinal, 'f', -1, 64)
}

// Filter picks chapters by ordinal label, by 1-based index range ("5-12") or
// by index list ("1,3,5"). The first non-empty selector wins.
func Filter(all []ChapterRef, chapter, rng, list string) []ChapterRef {
	if chapter != "" {
		byLabel := FilterByLabel(all, chapter)
		if len(byLabel) > 0 {
			return byLabel
		}

		if idx, err := strconv.Atoi(chapter); err == nil {
			if idx > 0 && idx <= len(all) {
				return []ChapterRef{all[idx-1]}
			}
		}

		return nil
	}

	if rng != "" {
		return FilterRange(all, rng)
	}
	if list != "" {
		return FilterList(all, list)
	}

	return all
}

func FilterByLabel(all []ChapterRef, label string) []ChapterRef {
	want := strings.TrimSpace(label)
	if f, err := strconv.ParseFloat(want, 64); err == nil {
		want = strconv.FormatFloat(f, 'f', -1, 64)
	}

	out := []ChapterRef{}
	for _, c := range all {
		if c.Label() == want {
			out = append(out, c)
		}
	}

	return out
}

func FilterRange(all []ChapterRef, rng string) []ChapterRef {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil
	}

	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))

	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || end <= 0 || start > end || end > len(all) {
		return nil
	}

	return all[start-1 : end]
}

func FilterList(all []ChapterRef, list string) []ChapterRef {
	var out []ChapterRef
	parts := strings.SplitSeq(list, ",")

	for p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx, err := strconv.Atoi(p)
		if err != nil || idx <= 0 || idx > len(all) {
			continue
		}

		out = append(out, all[idx-1])
	}

	return out
}
