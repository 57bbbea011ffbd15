package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// Environment variables the pipeline provides.
const (
	EnvClientID  = "HOUDINI_CLIENT_ID"
	EnvSecretKey = "HOUDINI_SECRET_KEY"
	EnvOutput    = "GITHUB_OUTPUT"
	EnvConfig    = "HFSCI_CONFIG"
	EnvStateDir  = "HFSCI_STATE_DIR"
	EnvWorkDir   = "HFSCI_WORK_DIR"
)

const (
	DefaultConfigPath     = "~/.config/hfsci/config.json"
	DefaultProduct        = "houdini"
	DefaultInstallTimeout = 18 * time.Minute
)

var (
	DefaultVersions  = []string{"20.0", "20.5", "21.0"}
	DefaultPlatforms = []string{"win64-vc143", "macosx_arm64", "macosx_x86_64", "linux_x86_64_gcc11.2"}
)

// Settings is everything the operations need from the outside world. The
// command layer builds it from the environment; operations never read the
// process environment themselves.
type Settings struct {
	ClientID     string `json:"-"`
	ClientSecret string `json:"-"`

	// OutputPath is the file that results are appended to.
	OutputPath string `json:"-"`

	Product   string   `json:"product"`
	Versions  []string `json:"versions"`
	Platforms []string `json:"platforms"`

	Endpoint string `json:"endpoint"`
	TokenURL string `json:"token-url"`

	// StateDir overrides where install records are kept.
	StateDir string `json:"state-dir"`

	// WorkDir is where artifacts are downloaded and unpacked.
	WorkDir string `json:"work-dir"`

	InstallTimeout Duration `json:"install-timeout"`
}

// Duration reads JSON strings like "18m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "parsing duration %q", s)
	}

	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Defaults returns settings with no credentials and the stock product
// line-up.
func Defaults() *Settings {
	return &Settings{
		Product:        DefaultProduct,
		Versions:       append([]string(nil), DefaultVersions...),
		Platforms:      append([]string(nil), DefaultPlatforms...),
		InstallTimeout: Duration(DefaultInstallTimeout),
	}
}

// Load reads the optional config file and then applies the environment.
func Load() (*Settings, error) {
	return LoadEnv(os.Getenv)
}

// LoadEnv is Load with an explicit environment lookup.
func LoadEnv(getenv func(string) string) (*Settings, error) {
	s := Defaults()

	path := getenv(EnvConfig)
	explicit := path != ""

	if !explicit {
		p, err := homedir.Expand(DefaultConfigPath)
		if err != nil {
			return nil, err
		}

		path = p
	}

	err := s.loadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
	}

	s.applyEnv(getenv)

	return s, nil
}

func (s *Settings) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}

	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	err = dec.Decode(s)
	if err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}

	if s.Product == "" {
		s.Product = DefaultProduct
	}

	if len(s.Versions) == 0 {
		s.Versions = append([]string(nil), DefaultVersions...)
	}

	if len(s.Platforms) == 0 {
		s.Platforms = append([]string(nil), DefaultPlatforms...)
	}

	if s.InstallTimeout <= 0 {
		s.InstallTimeout = Duration(DefaultInstallTimeout)
	}

	return nil
}

func (s *Settings) applyEnv(getenv func(string) string) {
	s.ClientID = getenv(EnvClientID)
	s.ClientSecret = getenv(EnvSecretKey)
	s.OutputPath = getenv(EnvOutput)

	if dir := getenv(EnvStateDir); dir != "" {
		s.StateDir = dir
	}

	if dir := getenv(EnvWorkDir); dir != "" {
		s.WorkDir = dir
	}
}

// MissingSecrets lists the credential variables that are not set.
func (s *Settings) MissingSecrets() []string {
	var missing []string

	if s.ClientID == "" {
		missing = append(missing, EnvClientID)
	}

	if s.ClientSecret == "" {
		missing = append(missing, EnvSecretKey)
	}

	return missing
}
