// Public domain.

package emiprog

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/soniakeys/emi/calib"
)

// Config is the resolved program configuration.  Each field has a viper
// key, settable from emi.yaml, an EMI_ environment variable or a flag.
type Config struct {
	LogLevel    string // log.level
	LogFormat   string // log.format, json or console
	RegistryDir string // registry.dir
	CalibFile   string // calib.file, YAML overrides or a binary snapshot
	Workers     int    // workers, 0 for one per CPU
	MetricsFile string // metrics.file
	ExportDir   string // export.dir
}

// flag name to config key
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"registry":     "registry.dir",
	"calib":        "calib.file",
	"workers":      "workers",
	"metrics-file": "metrics.file",
	"export-dir":   "export.dir",
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./emi.yaml if present)")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-format", "console", "console or json")
	fs.String("registry", "emi-registry", "specimen registry directory")
	fs.String("calib", "", "calibration YAML or snapshot file")
	fs.Int("workers", 0, "classification workers, 0 for one per CPU")
	fs.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	fs.String("export-dir", "metbull", "MetBull export directory")
}

// loadConfig reads the optional config file, the environment and the
// flags of fs into a Config.
func loadConfig(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	v.SetEnvPrefix("EMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for f, k := range flagKeys {
		if err := v.BindPFlag(k, fs.Lookup(f)); err != nil {
			return Config{}, err
		}
	}
	if fn, _ := fs.GetString("config"); fn != "" {
		v.SetConfigFile(fn)
	} else {
		v.SetConfigName("emi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}
	c := Config{
		LogLevel:    v.GetString("log.level"),
		LogFormat:   v.GetString("log.format"),
		RegistryDir: v.GetString("registry.dir"),
		CalibFile:   v.GetString("calib.file"),
		Workers:     v.GetInt("workers"),
		MetricsFile: v.GetString("metrics.file"),
		ExportDir:   v.GetString("export.dir"),
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

// NewLogger builds the program logger.  Logs go to stderr so command
// output on stdout stays parseable.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("log format %q: want json or console", format)
	}
	zc.Level = lvl
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// loadTables returns the default calibration, or the one in fn.  A .yaml
// or .yml file holds overrides of the defaults, anything else is a
// snapshot written by the calib command.
func loadTables(fn string, log *zap.Logger) (calib.Tables, error) {
	if fn == "" {
		return calib.Default(), nil
	}
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".yaml", ".yml":
		t, err := calib.LoadFile(fn)
		if err == nil {
			log.Info("calibration overrides loaded", zap.String("file", fn))
		}
		return t, err
	}
	t, created, err := calib.ReadFile(fn)
	if err != nil {
		return t, fmt.Errorf("%w\nUse command \"emi calib\" to regenerate the snapshot", err)
	}
	log.Info("calibration snapshot loaded",
		zap.String("file", fn),
		zap.String("created", created.Format(time.RFC3339)))
	return t, nil
}
