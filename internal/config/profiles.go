package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const DefaultLabel = "Default"

var (
	ErrNoConfig        = errors.New("no config selected")
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrBadLabel        = errors.New("invalid profile label")
)

// Labels become file names, so they are kept to a safe alphabet.
var reLabel = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ConfigRoot is FLAMED_CONFIG_DIR when set, else the platform config dir.
func ConfigRoot() string {
	if dir := os.Getenv("FLAMED_CONFIG_DIR"); dir != "" {
		return dir
	}
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "flamed")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "flamed")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "flamed")
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func ValidateLabel(label string) error {
	if !reLabel.MatchString(label) {
		return fmt.Errorf("%w %q: use letters, digits, '.', '_' or '-'", ErrBadLabel, label)
	}
	return nil
}

func profilePath(label string) (string, error) {
	if err := ValidateLabel(label); err != nil {
		return "", err
	}
	if err := os.MkdirAll(ConfigsDir(), 0o755); err != nil {
		return "", err
	}
	return filepath.Join(ConfigsDir(), label+".yaml"), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic replaces path in one rename so a crash never leaves half a
// profile behind.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".flamed-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}
	return label, nil
}

func setCurrent(label string) error {
	if err := os.MkdirAll(ConfigRoot(), 0o755); err != nil {
		return err
	}
	return writeAtomic(CurrentLabelFile(), []byte(label))
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}
	return profilePath(label)
}

// ConfigPathByLabel returns the file backing an existing profile.
func ConfigPathByLabel(label string) (string, error) {
	path, err := profilePath(label)
	if err != nil {
		return "", err
	}
	if !exists(path) {
		return "", fmt.Errorf("%w: %q", ErrProfileNotFound, label)
	}
	return path, nil
}

// ConfigInfo summarises one profile for listings and pickers.
type ConfigInfo struct {
	Label   string `json:"label"`
	Path    string `json:"path"`
	Active  bool   `json:"active"`
	BaseURL string `json:"base_url"`
	Err     string `json:"error,omitempty"`
}

func (c ConfigInfo) String() string {
	s := c.Label + "  " + c.BaseURL
	if c.Err != "" {
		s = c.Label + "  (unreadable: " + c.Err + ")"
	}
	if c.Active {
		s += "  (active)"
	}
	return s
}

func ListConfigs() ([]ConfigInfo, error) {
	entries, err := os.ReadDir(ConfigsDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		label, ok := strings.CutSuffix(e.Name(), ".yaml")
		if e.IsDir() || !ok || ValidateLabel(label) != nil {
			continue
		}

		info := ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), e.Name()),
			Active: label == activeLabel,
		}
		if cfg, err := loadYAML(info.Path); err != nil {
			info.Err = err.Error()
		} else {
			normalizeDefaults(cfg)
			info.BaseURL = cfg.BaseURL
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	if _, err := ConfigPathByLabel(label); err != nil {
		return err
	}
	return setCurrent(label)
}

// CreateConfig writes cfg as a new profile. A nil cfg means the defaults.
func CreateConfig(label string, cfg *Config) (string, error) {
	path, err := profilePath(label)
	if err != nil {
		return "", err
	}
	if exists(path) {
		return path, fmt.Errorf("%w: %q", ErrProfileExists, label)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return path, SaveYAML(cfg, path)
}

// AddConfig imports srcPath as a new profile after checking it parses.
func AddConfig(label, srcPath string) error {
	cfg, err := loadYAML(srcPath)
	if err != nil {
		return fmt.Errorf("import %s: %w", srcPath, err)
	}
	normalizeDefaults(cfg)

	_, err = CreateConfig(label, cfg)
	return err
}

// InitDefaultConfig creates the Default profile from cfg (nil means the
// defaults) and makes it active. An existing Default is only reactivated.
func InitDefaultConfig(cfg *Config) (string, error) {
	path, err := CreateConfig(DefaultLabel, cfg)
	if err != nil && !errors.Is(err, ErrProfileExists) {
		return "", err
	}
	if serr := setCurrent(DefaultLabel); serr != nil {
		return "", serr
	}
	return path, err
}

func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := profilePath(newLabel)
	if err != nil {
		return err
	}
	if exists(newPath) {
		return fmt.Errorf("%w: %q", ErrProfileExists, newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return setCurrent(newLabel)
	}
	return nil
}

// RemoveConfig deletes a profile. Removing the active one falls back to
// Default, which itself cannot be removed. The bool reports that fallback.
func RemoveConfig(label string) (bool, error) {
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return false, err
	}

	switched := false
	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		switched = true
	}

	return switched, os.Remove(path)
}

// ResetConfig rewrites a profile with the defaults. keepAuth carries over the
// user agent and cookies, which usually took effort to obtain.
func ResetConfig(label string, keepAuth bool) (string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return "", err
	}

	fresh := DefaultConfig()
	if keepAuth {
		if old, err := loadYAML(path); err == nil {
			fresh.UserAgent = old.UserAgent
			fresh.Cookie = old.Cookie
			fresh.CookieFile = old.CookieFile
		}
	}

	return path, SaveYAML(fresh, path)
}
