package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"git.lost.host/meutraa/tempo/internal/config"
	"git.lost.host/meutraa/tempo/internal/difficulty"
	"git.lost.host/meutraa/tempo/internal/input"
	"git.lost.host/meutraa/tempo/internal/render"
	"git.lost.host/meutraa/tempo/internal/score"
	"git.lost.host/meutraa/tempo/internal/theme"
	"github.com/eiannone/keyboard"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); nil != err {
		logrus.Fatalln(err)
	}
}

func setupLogging(flags *config.Flags) (func(), error) {
	level, err := logrus.ParseLevel(flags.LogLevel)
	if nil != err {
		return nil, err
	}
	logrus.SetLevel(level)
	if flags.LogFile == "" {
		return func() {}, nil
	}
	// The playfield owns the terminal, so logs go to a file.
	f, err := os.OpenFile(flags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if nil != err {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	logrus.SetOutput(f)
	return func() {
		logrus.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

// chooseChart asks for a chart when there is more than one and none was
// given on the command line.
func chooseChart(p *Program, index int) error {
	if index < 0 && p.ChartCount() == 1 {
		index = 0
	}
	if index < 0 {
		p.Charts(os.Stdout)
		r, _, err := keyboard.GetSingleKey()
		if nil != err {
			return fmt.Errorf("unable to read keyboard: %w", err)
		}
		i, err := strconv.Atoi(string(r))
		if nil != err {
			return fmt.Errorf("not a chart index: %q", r)
		}
		index = i
	}
	return p.Select(index)
}

func run(args []string) error {
	flags, err := config.Parse(args)
	if nil != err {
		return err
	}
	closeLog, err := setupLogging(flags)
	if nil != err {
		return err
	}
	defer closeLog()

	settings, err := config.LoadSettings(flags.Settings)
	if nil != err {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scorer := &score.DefaultScorer{Log: logrus.StandardLogger()}
	if err := scorer.Init(flags.Database); nil != err {
		return err
	}
	defer scorer.Deinit()

	p := &Program{
		Flags:      flags,
		Settings:   settings,
		Scorer:     scorer,
		Calculator: difficulty.DensityCalculator{},
		Log:        logrus.StandardLogger(),
	}
	if err := p.Init(ctx); nil != err {
		return err
	}
	if err := chooseChart(p, flags.Difficulty); nil != err {
		return err
	}

	r := &render.DefaultRenderer{
		Theme:   theme.NewDefaultTheme(settings.Skin),
		Spacing: int(flags.Spacing),
		BarRow:  int(flags.BarRow),
	}
	outcome, err := p.Play(ctx, r)
	if errors.Is(err, input.ErrQuit) {
		return nil
	}
	if nil != outcome {
		outcome.Summary(os.Stdout)
	}
	return err
}
