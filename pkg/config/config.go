package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/pdfchat/pkg/api"
	"github.com/go-go-golems/pdfchat/pkg/controller"
)

// AppName names the env prefix (PDFCHAT_) and the ~/.pdfchat config
// directory.
const AppName = "pdfchat"

const (
	KeyServerURL     = "server-url"
	KeyBannerDelay   = "banner-delay"
	KeyDedupe        = "dedupe"
	KeyMarkdownStyle = "markdown-style"
	KeyPickerDir     = "picker-dir"

	DefaultMarkdownStyle = "dark"
)

// Config holds the pdfchat settings. Logging and config file lookup are
// handled by clay and are not part of it.
type Config struct {
	ServerURL     string
	BannerDelay   time.Duration
	Dedupe        bool
	MarkdownStyle string
	PickerDir     string
}

func Defaults() *Config {
	return &Config{
		ServerURL:     api.DefaultBaseURL,
		BannerDelay:   controller.DefaultBannerDelay,
		Dedupe:        true,
		MarkdownStyle: DefaultMarkdownStyle,
	}
}

// AddFlags registers the pdfchat persistent flags on the root command.
func AddFlags(cmd *cobra.Command) {
	d := Defaults()
	fs := cmd.PersistentFlags()
	fs.String(KeyServerURL, d.ServerURL, "Base URL of the PDF chat server")
	fs.Duration(KeyBannerDelay, d.BannerDelay, "How long upload/delete results stay on the status line")
	fs.Bool(KeyDedupe, d.Dedupe, "Ignore upload/delete actions while one is already running")
	fs.String(KeyMarkdownStyle, d.MarkdownStyle, "Markdown style for answers (dark, light, notty, ascii, dracula, ...)")
	fs.String(KeyPickerDir, d.PickerDir, "Directory the file picker starts in (default: current directory)")
}

// FromViper reads the pdfchat keys without validating them.
func FromViper(v *viper.Viper) *Config {
	c := &Config{
		ServerURL:     strings.TrimSpace(v.GetString(KeyServerURL)),
		BannerDelay:   v.GetDuration(KeyBannerDelay),
		Dedupe:        v.GetBool(KeyDedupe),
		MarkdownStyle: strings.TrimSpace(v.GetString(KeyMarkdownStyle)),
		PickerDir:     strings.TrimSpace(v.GetString(KeyPickerDir)),
	}
	if c.MarkdownStyle == "" {
		c.MarkdownStyle = DefaultMarkdownStyle
	}
	return c
}

func Load(v *viper.Viper) (*Config, error) {
	c := FromViper(v)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if _, err := api.ParseBaseURL(c.ServerURL); err != nil {
		return errors.Wrap(err, "invalid "+KeyServerURL)
	}
	if c.BannerDelay <= 0 {
		return errors.Errorf("%s must be positive, got %s", KeyBannerDelay, c.BannerDelay)
	}
	return ValidatePickerDir(c.PickerDir)
}

// ValidatePickerDir accepts an empty value or an existing directory, with ~
// expanded.
func ValidatePickerDir(dir string) error {
	if dir == "" {
		return nil
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return errors.Wrap(err, "invalid "+KeyPickerDir)
	}
	if fi, err := os.Stat(expanded); err != nil || !fi.IsDir() {
		return errors.Errorf("%s %q is not a directory", KeyPickerDir, dir)
	}
	return nil
}

// ReadFile loads the settings stored in path alone, without flags or
// environment. Keys the file leaves out get their defaults; a missing file
// yields Defaults. The result is not validated, so a broken file can be
// loaded and repaired.
func ReadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Defaults(), nil
	}
	d := Defaults()
	v := viper.New()
	v.SetDefault(KeyServerURL, d.ServerURL)
	v.SetDefault(KeyBannerDelay, d.BannerDelay)
	v.SetDefault(KeyDedupe, d.Dedupe)
	v.SetDefault(KeyMarkdownStyle, d.MarkdownStyle)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	return FromViper(v), nil
}

type yamlConfig struct {
	ServerURL     string `yaml:"server-url"`
	BannerDelay   string `yaml:"banner-delay"`
	Dedupe        bool   `yaml:"dedupe"`
	MarkdownStyle string `yaml:"markdown-style"`
	PickerDir     string `yaml:"picker-dir,omitempty"`
}

func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(yamlConfig{
		ServerURL:     c.ServerURL,
		BannerDelay:   c.BannerDelay.String(),
		Dedupe:        c.Dedupe,
		MarkdownStyle: c.MarkdownStyle,
		PickerDir:     c.PickerDir,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	return out, nil
}

// DefaultConfigFile is where a new config file is written when none was
// loaded. clay looks for it there first.
func DefaultConfigFile() string {
	home, err := homedir.Dir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, "."+AppName, "config.yaml")
}

// WriteFile validates c and stores it as YAML at path. Keys of the existing
// file that pdfchat does not own, such as log-level, are kept.
func (c *Config) WriteFile(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	out, err := c.YAML()
	if err != nil {
		return err
	}
	merged, err := mergeInto(path, out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	if err := os.WriteFile(path, merged, 0o600); err != nil {
		return errors.Wrapf(err, "write config file %s", path)
	}
	log.Debug().Str("config_path", path).Msg("wrote config file")
	return nil
}

func mergeInto(path string, ours []byte) ([]byte, error) {
	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ours, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(existing, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	update := map[string]interface{}{}
	if err := yaml.Unmarshal(ours, &update); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	delete(doc, KeyPickerDir)
	for k, v := range update {
		doc[k] = v
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	return out, nil
}
