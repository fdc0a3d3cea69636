// Package config holds command line flags and the settings file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
)

const Version = "0.3.0"

// Flags are the per run options given on the command line.
type Flags struct {
	Directory   string
	Rate        float64
	Offset      time.Duration
	Delay       time.Duration
	Settings    string
	Database    string
	Practice    bool
	Difficulty  int
	Device      string
	Spectate    string
	FramePeriod time.Duration
	ScrollSpeed time.Duration
	Spacing     uint
	BarRow      uint
	LogLevel    string
	LogFile     string
}

// DefaultSettingsPath is settings.yaml in the user config directory, or in
// the working directory when there is none.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if nil != err {
		return "settings.yaml"
	}
	return filepath.Join(dir, "tempo", "settings.yaml")
}

// NewApp builds the flag parser writing into f.
func NewApp(f *Flags) *kingpin.Application {
	app := kingpin.New("tempo", "Terminal rhythm game")
	app.Version(Version)

	app.Arg("directory", "Song/chart directory").Required().ExistingDirVar(&f.Directory)
	app.Flag("rate", "Playback rate").Default("1.0").Short('r').Float64Var(&f.Rate)
	app.Flag("offset", "Global offset, added to the settings offset").Default("0ms").Short('o').DurationVar(&f.Offset)
	app.Flag("delay", "Start delay").Default("0s").Short('d').DurationVar(&f.Delay)
	app.Flag("settings", "Settings file").Default(DefaultSettingsPath()).StringVar(&f.Settings)
	app.Flag("db", "Score database").Default("./scores.db").StringVar(&f.Database)
	app.Flag("practice", "Enable checkpoints and retries").Short('P').BoolVar(&f.Practice)
	app.Flag("difficulty", "Chart index, asked for when negative").Default("-1").Short('D').IntVar(&f.Difficulty)
	app.Flag("device", "Read keys from an evdev device instead of the terminal").Short('i').StringVar(&f.Device)
	app.Flag("spectate", "Serve snapshots to websocket viewers on this address").StringVar(&f.Spectate)
	app.Flag("frame-period", "Render frame period").Default("4ms").Short('p').DurationVar(&f.FramePeriod)
	app.Flag("scroll-speed", "Time a note is on screen, overrides the settings file").Short('s').DurationVar(&f.ScrollSpeed)
	app.Flag("spacing", "Columns between keys").Default("6").Short('S').UintVar(&f.Spacing)
	app.Flag("bar-row", "Console row to render hit bar, from the bottom").Default("8").UintVar(&f.BarRow)
	app.Flag("log-level", "Log level").Default("warning").EnumVar(&f.LogLevel,
		"trace", "debug", "info", "warning", "error")
	app.Flag("log-file", "Write logs here while the playfield is drawn").Default("tempo.log").StringVar(&f.LogFile)
	return app
}

// Parse reads flags from args, which excludes the program name.
func Parse(args []string) (*Flags, error) {
	f := &Flags{}
	if _, err := NewApp(f).Parse(args); nil != err {
		return nil, err
	}
	return f, nil
}
