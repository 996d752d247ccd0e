package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// HeaderLen is the fixed command header: command, command_id, size.
const HeaderLen uint32 = 12

// MaxPayloadLen is the largest payload whose size still fits the u32 size
// field.
const MaxPayloadLen = math.MaxUint32 - HeaderLen

var (
	ErrShortHeader     = errors.New("frame: short fixed header")
	ErrSizeTooSmall    = errors.New("frame: size smaller than fixed header")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrShortPayload    = errors.New("frame: short payload")
)

// Header is the fixed wire header. Size counts the header and the payload.
type Header struct {
	Command   uint32
	CommandID uint32
	Size      uint32
}

// Frame is one complete wire message.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 64 * 1024 * 1024,
	}
}

// Clamped caps MaxPayloadBytes at MaxPayloadLen.
func (l Limits) Clamped() Limits {
	if l.MaxPayloadBytes > MaxPayloadLen {
		l.MaxPayloadBytes = MaxPayloadLen
	}
	return l
}

func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.Size < HeaderLen {
		return Frame{}, ErrSizeTooSmall
	}

	payloadLen := h.Size - HeaderLen
	if payloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return Frame{}, ErrShortPayload
			}
			return Frame{}, err
		}
	}

	return Frame{Header: h, Payload: payload}, nil
}

// WriteFrame writes header and payload in one call so a frame is never
// interleaved on the stream.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if uint64(len(f.Payload)) > uint64(limits.Clamped().MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}

	h := f.Header
	h.Size = HeaderLen + uint32(len(f.Payload))

	buf := make([]byte, 0, h.Size)
	buf = append(buf, EncodeHeader(h)...)
	buf = append(buf, f.Payload...)
	_, err := w.Write(buf)
	return err
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], h.Command)
	binary.LittleEndian.PutUint32(buf[4:8], h.CommandID)
	binary.LittleEndian.PutUint32(buf[8:12], h.Size)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != int(HeaderLen) {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	return Header{
		Command:   binary.LittleEndian.Uint32(b[0:4]),
		CommandID: binary.LittleEndian.Uint32(b[4:8]),
		Size:      binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}
