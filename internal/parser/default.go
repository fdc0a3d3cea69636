package parser

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.lost.host/meutraa/tempo/internal/game"
)

// DefaultParser reads StepMania .sm files.
type DefaultParser struct{}

type bpmChange struct {
	StartingBeat float64
	Value        float64
}

func (p *DefaultParser) getSecondsPerNote(rates []bpmChange, currentBeat float64, bpn float64) (float64, float64) {
	sel := float64(0.0)
	for _, bpm := range rates {
		if currentBeat >= bpm.StartingBeat {
			sel = bpm.Value
		} else {
			break
		}
	}
	secondsPerBeat := 60.0 / sel
	return sel, bpn * secondsPerBeat
}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine (or other negative note)
// K – Automatic keysound
// L – Lift note
// F – Fake note

func (p *DefaultParser) noteKind(ch byte) (game.NoteKind, bool) {
	switch ch {
	case '1':
		return game.KindTap, true
	case '2':
		return game.KindHold, true
	case '4':
		return game.KindBurst, true
	case 'M':
		return game.KindMine, true
	}
	return 0, false
}

func tagValue(mdl, tag string) (string, bool) {
	if !strings.HasPrefix(mdl, tag+":") {
		return "", false
	}
	v := strings.TrimPrefix(mdl, tag+":")
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), ";")), true
}

func (p *DefaultParser) Parse(file string) ([]*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}

	str := strings.ReplaceAll(string(data), "\r", "")
	sections := strings.Split(str, "#NOTES:")
	meta := sections[0]
	difficulties := []game.Difficulty{}
	for _, section := range sections[1:] {
		lines := strings.SplitN(section, "\n", 7)
		if len(lines) < 7 {
			return nil, fmt.Errorf("%s: truncated #NOTES header", file)
		}
		chartType := strings.TrimSpace(lines[1])
		chartType = strings.TrimSuffix(chartType, ":")
		nKeys, ok := game.NKeyMap[chartType]
		if !ok {
			continue
		}
		difficulties = append(difficulties, game.Difficulty{
			Name:    strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"),
			Msd:     strings.TrimSuffix(strings.TrimSpace(lines[4]), ":"),
			Section: lines[6],
			NKeys:   nKeys,
		})
	}

	offset := 0.0
	bpms := []bpmChange{}
	audio := ""

	for _, mdl := range strings.Split(meta, "\n#") {
		mdl = strings.TrimPrefix(strings.TrimSpace(mdl), "#")
		if v, ok := tagValue(mdl, "OFFSET"); ok {
			offs, err := strconv.ParseFloat(v, 64)
			if nil != err {
				return nil, fmt.Errorf("%s: bad #OFFSET: %w", file, err)
			}
			offset = -offs
		} else if v, ok := tagValue(mdl, "MUSIC"); ok && v != "" {
			audio = filepath.Join(filepath.Dir(file), v)
		} else if v, ok := tagValue(mdl, "BPMS"); ok {
			v = strings.ReplaceAll(v, "\n", "")
			for _, bpm := range strings.Split(v, ",") {
				as := strings.Split(strings.TrimSpace(bpm), "=")
				if len(as) != 2 {
					return nil, fmt.Errorf("%s: bad #BPMS entry %q", file, bpm)
				}
				sb, err := strconv.ParseFloat(as[0], 64)
				if nil != err {
					return nil, fmt.Errorf("%s: bad #BPMS beat: %w", file, err)
				}
				bbbs, err := strconv.ParseFloat(as[1], 64)
				if nil != err {
					return nil, fmt.Errorf("%s: bad #BPMS value: %w", file, err)
				}
				if bbbs <= 0 {
					return nil, fmt.Errorf("%s: non-positive BPM %v", file, bbbs)
				}
				bpms = append(bpms, bpmChange{
					StartingBeat: sb,
					Value:        bbbs,
				})
			}
		}
	}
	if len(bpms) == 0 || bpms[0].StartingBeat > 0 {
		return nil, fmt.Errorf("%s: no BPM at beat 0", file)
	}

	charts := []*game.Chart{}
	for _, difficulty := range difficulties {
		// Start time of first note
		seconds := offset
		var currentBeat float64 = 0.0

		notes := []game.Note{}
		blocks := strings.Split(difficulty.Section, "\n,")
		measures := []game.Measure{}

		for _, block := range blocks {
			measures = append(measures, game.Measure{
				Denom:  1,
				TimeUs: secondsToUs(seconds),
			})

			lines := []string{}
			bls := strings.Split(block, "\n")
			for _, l := range bls {
				if strings.HasPrefix(l, " ") || strings.Contains(l, "-") {
					continue
				}
				l = strings.TrimSpace(l)
				if len(l) >= int(difficulty.NKeys) && len(l) > 3 {
					lines = append(lines, l)
				}
			}
			if len(lines) == 0 {
				continue
			}

			// Beat count is 4 per block
			lineCount := int64(len(lines))
			beatsPerNote := 4.0 / float64(lineCount) // 1/4, 1/8, 1/16, 1/24 etc

			// for each note line in a block
			for i, line := range lines {
				r := big.NewRat(int64(i*4), lineCount)
				denom := r.Denom().Int64()
				if denom == 1 && i != 0 {
					measures = append(measures, game.Measure{Denom: 4, TimeUs: secondsToUs(seconds)})
				}
				if denom == 2 || denom == 4 {
					measures = append(measures, game.Measure{Denom: 8, TimeUs: secondsToUs(seconds)})
				}
				_, secondsPerNote := p.getSecondsPerNote(bpms, currentBeat, beatsPerNote)

				for col := 0; col < int(difficulty.NKeys); col++ {
					c := line[col]
					if kind, ok := p.noteKind(c); ok {
						notes = append(notes, game.Note{
							TimeUs: secondsToUs(seconds),
							Column: uint8(col),
							Kind:   kind,
							Denom:  int(denom),
						})
					} else if c == '3' {
						// This is the tail of a previous head in this column
						for j := len(notes) - 1; j >= 0; j-- {
							note := &notes[j]
							if int(note.Column) != col {
								continue
							}
							if note.Kind == game.KindHold || note.Kind == game.KindBurst {
								note.DurationUs = secondsToUs(seconds) - note.TimeUs
							}
							break
						}
					}
				}

				seconds += secondsPerNote
				currentBeat += beatsPerNote
			}
		}

		if len(notes) == 0 {
			continue
		}
		chart, err := game.NewChart(notes, difficulty)
		if nil != err {
			return nil, fmt.Errorf("%s: %s: %w", file, difficulty.Name, err)
		}
		chart.Measures = measures
		chart.AudioFile = audio
		charts = append(charts, chart)
	}

	if len(charts) == 0 {
		return nil, fmt.Errorf("%s: %w", file, ErrNoNotes)
	}
	return charts, nil
}
