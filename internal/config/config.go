// Package config handles loading and validating the action inputs for
// the runner VM.  Inputs are read through an InputSource (the GitHub
// Actions INPUT_* environment, a YAML file, or CLI overrides), coerced
// into typed fields and checked against the mode-dependent rules.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Modes accepted by the action.
const (
	ModeStart = "start"
	ModeStop  = "stop"
)

// Input names, as declared in action.yml.
const (
	InputFolderID         = "folder-id"
	InputMode             = "mode"
	InputGithubToken      = "github-token"
	InputRunnerHomeDir    = "runner-home-dir"
	InputLabel            = "label"
	InputServiceAccountID = "vm-service-account-id"
	InputImageID          = "vm-image-id"
	InputZoneID           = "vm-zone-id"
	InputSubnetID         = "vm-subnet-id"
	InputPlatformID       = "vm-platform-id"
	InputCores            = "vm-cores"
	InputMemory           = "vm-memory"
	InputDiskType         = "vm-disk-type"
	InputDiskSize         = "vm-disk-size"
	InputCoreFraction     = "vm-core-fraction"
	InputInstanceID       = "instance-id"
)

// Defaults applied when an optional input is empty.
const (
	DefaultZoneID       = "ru-central1-a"
	DefaultPlatformID   = "standard-v3"
	DefaultCores        = "2"
	DefaultMemory       = "1Gb"
	DefaultDiskType     = "network-ssd"
	DefaultDiskSize     = "30Gb"
	DefaultCoreFraction = "100"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// ResourcesSpec describes the compute resources of the runner VM.
type ResourcesSpec struct {
	// Memory is the RAM size in bytes.
	Memory int64
	// Cores is the number of vCPUs.
	Cores int
	// CoreFraction is the guaranteed share of each core, in percent.
	CoreFraction int
}

// ActionConfig is the flat set of provisioning parameters read from the
// action inputs.
type ActionConfig struct {
	ImageID          string
	Mode             string
	GithubToken      string
	RunnerHomeDir    string
	Label            string
	SubnetID         string
	ServiceAccountID string
	DiskType         string
	// DiskSize is the boot disk size in bytes.
	DiskSize   int64
	FolderID   string
	ZoneID     string
	PlatformID string
	Resources  ResourcesSpec

	// InstanceID is only meaningful in stop mode.
	InstanceID string
}

// GithubRepo identifies the repository the runner registers against.
type GithubRepo struct {
	Owner string
	Repo  string
}

// String returns the "owner/repo" form.
func (r GithubRepo) String() string {
	return r.Owner + "/" + r.Repo
}

// Config is a validated ActionConfig together with the repository it
// belongs to.  It is built once by New and only read afterwards.
type Config struct {
	input ActionConfig
	repo  GithubRepo
}

// Input returns a copy of the validated inputs.
func (c *Config) Input() ActionConfig { return c.input }

// Repo returns the repository identity.
func (c *Config) Repo() GithubRepo { return c.repo }

// WithLabel returns a copy of c whose runner label is label.  Start mode
// uses it to attach a generated label; c itself is unchanged.
func (c *Config) WithLabel(label string) *Config {
	cp := *c
	cp.input.Label = label
	return &cp
}

// New loads the inputs from src, validates them and binds them to repo.
// No Config is returned unless every check passes.
func New(src InputSource, repo GithubRepo) (*Config, error) {
	if repo.Owner == "" || repo.Repo == "" {
		return nil, &MalformedValueError{Key: EnvGithubRepository, Value: repo.String(), Reason: "owner and repo must be non-empty"}
	}

	input, err := Load(src)
	if err != nil {
		return nil, err
	}
	if err := Validate(input); err != nil {
		return nil, err
	}
	return &Config{input: input, repo: repo}, nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads every action input from src and parses the numeric and size
// fields.  It does not apply the mode rules; see Validate.
func Load(src InputSource) (ActionConfig, error) {
	r := reader{src: src}

	cfg := ActionConfig{
		FolderID:         r.get(InputFolderID, true),
		Mode:             r.get(InputMode, false),
		GithubToken:      r.get(InputGithubToken, false),
		RunnerHomeDir:    r.get(InputRunnerHomeDir, false),
		Label:            r.get(InputLabel, false),
		ServiceAccountID: r.get(InputServiceAccountID, false),
		ImageID:          r.get(InputImageID, true),
		ZoneID:           r.getOr(InputZoneID, DefaultZoneID),
		SubnetID:         r.get(InputSubnetID, true),
		PlatformID:       r.getOr(InputPlatformID, DefaultPlatformID),
		Resources: ResourcesSpec{
			Cores:        r.integer(InputCores, DefaultCores),
			Memory:       r.size(InputMemory, DefaultMemory),
			CoreFraction: r.integer(InputCoreFraction, DefaultCoreFraction),
		},
		DiskType:   r.getOr(InputDiskType, DefaultDiskType),
		DiskSize:   r.size(InputDiskSize, DefaultDiskSize),
		InstanceID: r.get(InputInstanceID, false),
	}
	if r.err != nil {
		return ActionConfig{}, r.err
	}
	return cfg, nil
}

// reader keeps the first error so Load can read inputs in declaration
// order without checking after every call.
type reader struct {
	src InputSource
	err error
}

func (r *reader) get(key string, required bool) string {
	if r.err != nil {
		return ""
	}
	v, err := r.src.Input(key, required)
	if err != nil {
		r.err = err
		return ""
	}
	return v
}

func (r *reader) getOr(key, def string) string {
	if v := r.get(key, false); v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key, def string) int {
	raw := r.getOr(key, def)
	if r.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 0)
	if err != nil {
		r.err = &MalformedValueError{Key: key, Value: raw, Reason: "not a base-10 integer"}
		return 0
	}
	return int(n)
}

func (r *reader) size(key, def string) int64 {
	raw := r.getOr(key, def)
	if r.err != nil {
		return 0
	}
	n, err := ParseSize(raw)
	if err != nil {
		var me *MalformedValueError
		if errors.As(err, &me) {
			me.Key = key
		}
		r.err = err
		return 0
	}
	return n
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the mode-dependent required fields.  Rules are applied
// in a fixed order and the first violation is returned.
func Validate(c ActionConfig) error {
	if c.Mode == "" {
		return &ConfigError{Reason: ReasonModeNotSpecified}
	}
	if c.GithubToken == "" {
		return &ConfigError{Reason: ReasonTokenNotSpecified}
	}

	switch c.Mode {
	case ModeStart:
		if c.ImageID == "" || c.SubnetID == "" {
			return &ConfigError{
				Reason: ReasonMissingStartInputs,
				Detail: missing(InputImageID, c.ImageID, InputSubnetID, c.SubnetID),
			}
		}
	case ModeStop:
		if c.Label == "" || c.InstanceID == "" {
			return &ConfigError{
				Reason: ReasonMissingStopInputs,
				Detail: missing(InputLabel, c.Label, InputInstanceID, c.InstanceID),
			}
		}
	default:
		return &ConfigError{
			Reason: ReasonInvalidMode,
			Detail: fmt.Sprintf("%q (allowed: %s, %s)", c.Mode, ModeStart, ModeStop),
		}
	}

	return nil
}

// missing takes key/value pairs and lists the keys whose value is empty.
func missing(kv ...string) string {
	var keys []string
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			keys = append(keys, kv[i])
		}
	}
	return strings.Join(keys, ", ")
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	// Level: debug, info, warn, error.  Default: info.
	Level string
	// Format: text, json.  Default: text.
	Format string
}

// NewLogger creates a *slog.Logger writing to w.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: c.slogLevel(),
	}

	switch strings.ToLower(c.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

func (c LoggingConfig) slogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogValue implements slog.LogValuer.  The github token is never logged.
func (c ActionConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", c.Mode),
		slog.String("folder_id", c.FolderID),
		slog.String("zone_id", c.ZoneID),
		slog.String("platform_id", c.PlatformID),
		slog.String("image_id", c.ImageID),
		slog.String("subnet_id", c.SubnetID),
		slog.String("label", c.Label),
		slog.String("instance_id", c.InstanceID),
		slog.Int("cores", c.Resources.Cores),
		slog.Int64("memory_bytes", c.Resources.Memory),
		slog.Int("core_fraction", c.Resources.CoreFraction),
		slog.String("disk_type", c.DiskType),
		slog.Int64("disk_size_bytes", c.DiskSize),
	)
}
