package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "diary.db"
	DefaultLogName        = "diary.log"
	DefaultRowCap         = 3

	// EnvConfigPath overrides the config location.
	EnvConfigPath = "DIARY_CONFIG"
)

type Keymap struct {
	Quit     string `toml:"quit"`
	Add      string `toml:"add"`
	Up       string `toml:"up"`
	Down     string `toml:"down"`
	Complete string `toml:"complete"`
	Delete   string `toml:"delete"`
	Edit     string `toml:"edit"`
	ShowMore string `toml:"show_more"`
	Switch   string `toml:"switch"`
	Confirm  string `toml:"confirm"`
	Cancel   string `toml:"cancel"`
	Save     string `toml:"save"`
	Reload   string `toml:"reload"`
	Submit   string `toml:"submit"`
}

type Config struct {
	DBPath    string `toml:"db_path"`
	RowCap    int    `toml:"row_cap"`
	LogPath   string `toml:"log_path"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Keys      Keymap `toml:"keys"`
}

// ResolveConfigPath picks the config file location: $DIARY_CONFIG, then the
// user config dir, then the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "diary", DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing defaults first if the file
// does not exist. Relative db and log paths resolve against the config dir.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return resolvePaths(cfg, path), err
		}
		return resolvePaths(cfg, path), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return resolvePaths(cfg, path), err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return resolvePaths(defaultConfig(), path), err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogName
	}
	if cfg.RowCap <= 0 {
		cfg.RowCap = DefaultRowCap
	}
	cfg.Keys = fillKeys(cfg.Keys, defaultConfig().Keys)
	return resolvePaths(cfg, path), nil
}

func resolvePaths(cfg Config, configPath string) Config {
	dir := filepath.Dir(configPath)
	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}
	if !filepath.IsAbs(cfg.LogPath) {
		cfg.LogPath = filepath.Join(dir, cfg.LogPath)
	}
	return cfg
}

func fillKeys(k, def Keymap) Keymap {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Keymap{
		Quit:     pick(k.Quit, def.Quit),
		Add:      pick(k.Add, def.Add),
		Up:       pick(k.Up, def.Up),
		Down:     pick(k.Down, def.Down),
		Complete: pick(k.Complete, def.Complete),
		Delete:   pick(k.Delete, def.Delete),
		Edit:     pick(k.Edit, def.Edit),
		ShowMore: pick(k.ShowMore, def.ShowMore),
		Switch:   pick(k.Switch, def.Switch),
		Confirm:  pick(k.Confirm, def.Confirm),
		Cancel:   pick(k.Cancel, def.Cancel),
		Save:     pick(k.Save, def.Save),
		Reload:   pick(k.Reload, def.Reload),
		Submit:   pick(k.Submit, def.Submit),
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration with paths relative to dir.
func Default(dir string) Config {
	return resolvePaths(defaultConfig(), filepath.Join(dir, DefaultConfigFileName))
}

func defaultConfig() Config {
	return Config{
		DBPath:    DefaultDBName,
		RowCap:    DefaultRowCap,
		LogPath:   DefaultLogName,
		LogLevel:  "info",
		LogFormat: "text",
		Keys: Keymap{
			Quit:     "q",
			Add:      "a",
			Up:       "k",
			Down:     "j",
			Complete: "c",
			Delete:   "d",
			Edit:     "e",
			ShowMore: "m",
			Switch:   "tab",
			Confirm:  "enter",
			Cancel:   "esc",
			Save:     "w",
			Reload:   "r",
			Submit:   "ctrl+s",
		},
	}
}
