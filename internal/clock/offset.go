package clock

import "time"

type offsetDevice struct {
	Device
	offset float64
}

// WithOffset shifts a device by a global audio offset. A positive offset
// means the song is heard later than the device reports it.
func WithOffset(dev Device, offset time.Duration) Device {
	if dev == nil || offset == 0 {
		return dev
	}
	return &offsetDevice{Device: dev, offset: offset.Seconds()}
}

func (d *offsetDevice) PositionSeconds() float64 {
	return d.Device.PositionSeconds() - d.offset
}

func (d *offsetDevice) Seek(seconds float64) error {
	return d.Device.Seek(seconds + d.offset)
}
