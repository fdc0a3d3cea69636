package parser

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.lost.host/meutraa/tempo/internal/game"
)

const (
	osuManiaMode   = 3
	osuPlayfieldX  = 512
	osuTypeCircle  = 1
	osuTypeHold    = 128
	osuMaxManiaKey = 18
)

var errNotMania = errors.New("not an osu!mania beatmap")

// OsuParser reads osu!mania .osu beatmaps. A beatmap holds one chart.
type OsuParser struct{}

type osuSection int

const (
	secNone osuSection = iota
	secGeneral
	secMetadata
	secDifficulty
	secHitObjects
	secOther
)

func osuSectionFor(header string) osuSection {
	switch header {
	case "[General]":
		return secGeneral
	case "[Metadata]":
		return secMetadata
	case "[Difficulty]":
		return secDifficulty
	case "[HitObjects]":
		return secHitObjects
	}
	return secOther
}

func splitKV(line string) (string, string, bool) {
	k, v, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}

func (p *OsuParser) Parse(file string) ([]*game.Chart, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()

	var (
		sec        = secNone
		mode       = 0
		keys       = 0
		version    string
		audio      string
		od         string
		objectRows []string
	)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sec = osuSectionFor(line)
			continue
		}
		switch sec {
		case secGeneral:
			k, v, ok := splitKV(line)
			if !ok {
				continue
			}
			switch k {
			case "AudioFilename":
				audio = v
			case "Mode":
				mode, _ = strconv.Atoi(v)
			}
		case secMetadata:
			if k, v, ok := splitKV(line); ok && k == "Version" {
				version = v
			}
		case secDifficulty:
			k, v, ok := splitKV(line)
			if !ok {
				continue
			}
			switch k {
			case "CircleSize":
				cs, err := strconv.ParseFloat(v, 64)
				if nil != err {
					return nil, fmt.Errorf("%s: bad CircleSize: %w", file, err)
				}
				keys = int(math.Round(cs))
			case "OverallDifficulty":
				od = v
			}
		case secHitObjects:
			objectRows = append(objectRows, line)
		}
	}
	if err := sc.Err(); nil != err {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if mode != osuManiaMode {
		return nil, fmt.Errorf("%s: %w (mode %d)", file, errNotMania, mode)
	}
	if keys < 1 || keys > osuMaxManiaKey {
		return nil, fmt.Errorf("%s: unsupported key count %d", file, keys)
	}

	notes := make([]game.Note, 0, len(objectRows))
	for i, row := range objectRows {
		n, ok, err := parseOsuHitObject(row, keys)
		if nil != err {
			return nil, fmt.Errorf("%s: hit object %d: %w", file, i, err)
		}
		if ok {
			notes = append(notes, n)
		}
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("%s: %w", file, ErrNoNotes)
	}

	chart, err := game.NewChart(notes, game.Difficulty{
		Name:  version,
		Msd:   od,
		NKeys: uint8(keys),
	})
	if nil != err {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if audio != "" {
		chart.AudioFile = filepath.Join(filepath.Dir(file), audio)
	}
	return []*game.Chart{chart}, nil
}

// parseOsuHitObject reads x,y,time,type,hitSound[,extras]. Columns come from
// x spread across the 512 wide playfield.
func parseOsuHitObject(row string, keys int) (game.Note, bool, error) {
	parts := strings.Split(row, ",")
	if len(parts) < 5 {
		return game.Note{}, false, fmt.Errorf("expected at least 5 fields, got %d", len(parts))
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if nil != err {
		return game.Note{}, false, fmt.Errorf("bad x: %w", err)
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if nil != err {
		return game.Note{}, false, fmt.Errorf("bad time: %w", err)
	}
	typ, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if nil != err {
		return game.Note{}, false, fmt.Errorf("bad type: %w", err)
	}

	col := x * keys / osuPlayfieldX
	if col < 0 {
		col = 0
	}
	if col >= keys {
		col = keys - 1
	}
	n := game.Note{
		TimeUs: int64(math.Round(t * 1000)),
		Column: uint8(col),
		Kind:   game.KindTap,
		Denom:  4,
	}

	switch {
	case typ&osuTypeHold != 0:
		if len(parts) < 6 {
			return game.Note{}, false, errors.New("hold without end time")
		}
		endField, _, _ := strings.Cut(parts[5], ":")
		end, err := strconv.ParseFloat(strings.TrimSpace(endField), 64)
		if nil != err {
			return game.Note{}, false, fmt.Errorf("bad hold end: %w", err)
		}
		n.Kind = game.KindHold
		if d := int64(math.Round(end*1000)) - n.TimeUs; d > 0 {
			n.DurationUs = d
		}
	case typ&osuTypeCircle != 0:
	default:
		return game.Note{}, false, nil
	}
	return n, true, nil
}
