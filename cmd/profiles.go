package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/manifoldco/promptui"
)

var profileTemplates = &promptui.SelectTemplates{
	Label:    "{{ . }}",
	Active:   "▸ {{ .Label | cyan }}  {{ .BaseURL | faint }}{{ if .Active }} (active){{ end }}",
	Inactive: "  {{ .Label }}  {{ .BaseURL | faint }}{{ if .Active }} (active){{ end }}",
	Selected: "{{ .Label | green }}",
	Details: `{{ if .Err }}unreadable: {{ .Err }}{{ else }}{{ .Path }}{{ end }}`,
}

// pickProfile returns label when given, otherwise asks for one of the
// existing profiles.
func pickProfile(label, title string) (config.ConfigInfo, error) {
	list, err := config.ListConfigs()
	if err != nil {
		return config.ConfigInfo{}, err
	}

	if label != "" {
		for _, c := range list {
			if c.Label == label {
				return c, nil
			}
		}
		if err := config.ValidateLabel(label); err != nil {
			return config.ConfigInfo{}, err
		}
		return config.ConfigInfo{}, fmt.Errorf("%w: %q", config.ErrProfileNotFound, label)
	}

	if len(list) == 0 {
		return config.ConfigInfo{}, errors.New("no configs available, run `flamed config init`")
	}

	prompt := promptui.Select{
		Label:     title,
		Items:     list,
		Templates: profileTemplates,
		Size:      10,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return config.ConfigInfo{}, fmt.Errorf("selection cancelled")
	}

	return list[idx], nil
}

// confirm asks a yes/no question; anything but yes is a no.
func confirm(label string) bool {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := p.Run()
	return err == nil
}

func validateSiteURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("need an http(s) URL with a host")
	}
	return nil
}

func validatePositiveFloat(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return errors.New("need a positive number")
	}
	return nil
}
