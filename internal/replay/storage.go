package replay

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// CompressionLevel is the zstd level replays are written with.
const CompressionLevel = 21

const (
	inputSize      = 9
	checkpointSize = 8
	// Upper bound on a decoded replay, a few hours of dense play.
	maxDecodedSize = 64 << 20
)

var encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(CompressionLevel)),
		zstd.WithEncoderConcurrency(1),
	)
})

var decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxDecodedSize),
		zstd.WithDecoderConcurrency(0),
	)
})

// Marshal encodes the replay in its fixed little endian layout:
//
//	version u8
//	input count u32, then per input: time i64, payload u8
//	rate f64
//	practice u8
//	checkpoint count u32, then per checkpoint: time i64
func Marshal(d *Data) ([]byte, error) {
	if uint64(len(d.Inputs)) > math.MaxUint32 || uint64(len(d.Checkpoints)) > math.MaxUint32 {
		return nil, &SerializationError{Op: "encode", Err: fmt.Errorf("%w: too many entries", ErrCorrupt)}
	}
	buf := make([]byte, 0, 1+4+len(d.Inputs)*inputSize+8+1+4+len(d.Checkpoints)*checkpointSize)
	buf = append(buf, d.Version)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(d.Inputs)))
	for _, in := range d.Inputs {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(in.TimeUs))
		buf = append(buf, in.Payload)
	}
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(d.Rate))
	if d.Practice {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(d.Checkpoints)))
	for _, c := range d.Checkpoints {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(c))
	}
	return buf, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.off < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if nil != err {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if nil != err {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if nil != err {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// count reads an entry count and checks the entries fit in what is left.
func (r *reader) count(size int) (int, error) {
	n, err := r.u32()
	if nil != err {
		return 0, err
	}
	if uint64(n)*uint64(size) > uint64(len(r.buf)-r.off) {
		return 0, fmt.Errorf("%w: %d entries of %d bytes at offset %d", ErrTruncated, n, size, r.off)
	}
	return int(n), nil
}

// Unmarshal decodes the layout written by Marshal. It checks structure only;
// see Data.Validate for content checks.
func Unmarshal(b []byte) (*Data, error) {
	d, err := unmarshal(b)
	if nil != err {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	return d, nil
}

func unmarshal(b []byte) (*Data, error) {
	r := &reader{buf: b}
	version, err := r.u8()
	if nil != err {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	d := &Data{Version: version}

	n, err := r.count(inputSize)
	if nil != err {
		return nil, err
	}
	d.Inputs = make([]Input, n)
	for i := range d.Inputs {
		t, _ := r.u64()
		p, _ := r.u8()
		d.Inputs[i] = Input{TimeUs: int64(t), Payload: p}
	}

	rate, err := r.u64()
	if nil != err {
		return nil, err
	}
	d.Rate = math.Float64frombits(rate)

	practice, err := r.u8()
	if nil != err {
		return nil, err
	}
	switch practice {
	case 0:
	case 1:
		d.Practice = true
	default:
		return nil, fmt.Errorf("%w: practice flag %d", ErrCorrupt, practice)
	}

	n, err = r.count(checkpointSize)
	if nil != err {
		return nil, err
	}
	d.Checkpoints = make([]int64, n)
	for i := range d.Checkpoints {
		t, _ := r.u64()
		d.Checkpoints[i] = int64(t)
	}

	if r.off != len(b) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(b)-r.off)
	}
	return d, nil
}

// Compress encodes and zstd compresses a replay.
func Compress(d *Data) ([]byte, error) {
	raw, err := Marshal(d)
	if nil != err {
		return nil, err
	}
	enc, err := encoder()
	if nil != err {
		return nil, &SerializationError{Op: "compress", Err: err}
	}
	return enc.EncodeAll(raw, nil), nil
}

// Decompress reverses Compress. Malformed streams, unknown versions and
// replays that fail Validate are reported as a *SerializationError.
func Decompress(b []byte) (*Data, error) {
	dec, err := decoder()
	if nil != err {
		return nil, &SerializationError{Op: "decompress", Err: err}
	}
	raw, err := dec.DecodeAll(b, nil)
	if nil != err {
		return nil, &SerializationError{Op: "decompress", Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}
	d, err := Unmarshal(raw)
	if nil != err {
		return nil, err
	}
	if err := d.Validate(); nil != err {
		return nil, &SerializationError{Op: "validate", Err: err}
	}
	return d, nil
}

// WriteFile stores a compressed replay at path.
func WriteFile(path string, d *Data) error {
	b, err := Compress(d)
	if nil != err {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); nil != err {
		return fmt.Errorf("unable to write replay %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a compressed replay from path.
func ReadFile(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if nil != err {
		return nil, fmt.Errorf("unable to read replay %s: %w", path, err)
	}
	d, err := Decompress(b)
	if nil != err {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
