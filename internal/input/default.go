//go:build linux

package input

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"git.lost.host/meutraa/tempo/internal/engine"
	"github.com/sirupsen/logrus"
)

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/input-event-codes.h
const (
	evKey        = 0x01
	valueRelease = 0
	valuePress   = 1
)

type keyEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// keyCodes maps runes to linux key codes for a US layout.
var keyCodes = map[rune]uint16{
	'1': 2, '2': 3, '3': 4, '4': 5, '5': 6, '6': 7, '7': 8, '8': 9, '9': 10, '0': 11, '-': 12, '=': 13,
	'q': 16, 'w': 17, 'e': 18, 'r': 19, 't': 20, 'y': 21, 'u': 22, 'i': 23, 'o': 24, 'p': 25, '[': 26, ']': 27,
	'a': 30, 's': 31, 'd': 32, 'f': 33, 'g': 34, 'h': 35, 'j': 36, 'k': 37, 'l': 38, ';': 39, '\'': 40,
	'z': 44, 'x': 45, 'c': 46, 'v': 47, 'b': 48, 'n': 49, 'm': 50, ',': 51, '.': 52, '/': 53, ' ': 57,
}

// EvdevCodes maps key codes to the runes of a keymap.
func EvdevCodes(km Keymap) map[uint16]rune {
	codes := map[uint16]rune{}
	for _, r := range append(km.Runes(), km.Checkpoint, km.Retry) {
		if c, ok := keyCodes[r]; ok {
			codes[c] = r
		}
	}
	return codes
}

// Evdev reads key presses and releases straight from an input device such
// as /dev/input/event3. Unlike the terminal it sees real releases.
func Evdev(ctx context.Context, device string, km Keymap, out chan<- engine.Action) error {
	file, err := os.Open(device)
	if nil != err {
		return fmt.Errorf("unable to open input device: %w", err)
	}
	go func() {
		<-ctx.Done()
		file.Close()
	}()
	err = readEvents(ctx, file, km, out)
	if nil != ctx.Err() {
		return ctx.Err()
	}
	return err
}

func readEvents(ctx context.Context, r io.Reader, km Keymap, out chan<- engine.Action) error {
	codes := EvdevCodes(km)
	var ev keyEvent
	for {
		if err := binary.Read(r, binary.LittleEndian, &ev); nil != err {
			if errors.Is(err, io.EOF) {
				return nil
			}
			logrus.WithError(err).Warn("unable to read keyboard input")
			return err
		}
		if ev.Type != evKey || (ev.Value != valuePress && ev.Value != valueRelease) {
			continue
		}
		rn, ok := codes[ev.Code]
		if !ok {
			continue
		}
		a, ok := km.Action(rn, ev.Value == valuePress)
		if !ok {
			continue
		}
		if err := send(ctx, out, a); nil != err {
			return err
		}
	}
}
