package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"strings"

	"git.lost.host/meutraa/tempo/internal/game"
)

var (
	ErrNoNotes        = errors.New("no playable charts")
	ErrUnknownFormat  = errors.New("unknown chart format")
	ErrNoChartInSong  = errors.New("unable to find a .sm or .osu file")
	ErrNoAudioForSong = errors.New("unable to find an .mp3, .ogg or .wav file")
)

type Parser interface {
	Parse(file string) ([]*game.Chart, error)
}

// ForFile picks the parser for a chart file by its extension.
func ForFile(file string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".sm":
		return &DefaultParser{}, nil
	case ".osu":
		return &OsuParser{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, file)
}

// Song is a chart file and the audio next to it.
type Song struct {
	ChartFile string
	AudioFile string
}

// Locate walks a song directory for a chart and its audio. An .ogg is
// preferred over other audio.
func Locate(dir string) (Song, error) {
	var song Song
	if err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if nil != err {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".ogg":
			song.AudioFile = p
		case ".mp3", ".wav":
			if !strings.EqualFold(filepath.Ext(song.AudioFile), ".ogg") {
				song.AudioFile = p
			}
		case ".sm", ".osu":
			if song.ChartFile == "" {
				song.ChartFile = p
			}
		}
		return nil
	}); nil != err {
		return song, fmt.Errorf("unable to walk song directory: %w", err)
	}
	if song.ChartFile == "" {
		return song, fmt.Errorf("%w in %s", ErrNoChartInSong, dir)
	}
	if song.AudioFile == "" {
		return song, fmt.Errorf("%w in %s", ErrNoAudioForSong, dir)
	}
	return song, nil
}

// Load parses every chart in file.
func Load(file string) ([]*game.Chart, error) {
	p, err := ForFile(file)
	if nil != err {
		return nil, err
	}
	return p.Parse(file)
}

func secondsToUs(s float64) int64 {
	return int64(math.Round(s * 1e6))
}
