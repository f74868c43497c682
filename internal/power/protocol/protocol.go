// Package protocol encodes commands for the external power controller.
//
// Every frame is an opcode byte followed by a fixed-width big-endian payload.
// Frames carry no checksum: the serial link may drop a frame but is assumed
// not to corrupt one.
package protocol

import (
	"encoding/binary"
	"fmt"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// Opcode identifies a power controller command.
type Opcode byte

const (
	OpSleep  Opcode = 0x61 // 'a'
	OpStatus Opcode = 0x62
)

// SleepFrameSize is the length of an encoded Sleep command.
const SleepFrameSize = 5

// ForeverSeconds is the Sleep payload that asks the controller to never wake the node.
const ForeverSeconds uint32 = 0xFFFFFFFF

var (
	ErrUnknownOpcode  = errors.ValidationError("unknown power command opcode").Build()
	ErrInvalidPayload = errors.ValidationError("invalid power command payload").Build()
	ErrShortFrame     = errors.ValidationError("power command frame too short").Build()
	ErrAckUnsupported = errors.ChannelError("power controller acknowledgements are not defined").Build()
)

func (o Opcode) String() string {
	switch o {
	case OpSleep:
		return "sleep"
	case OpStatus:
		return "status"
	default:
		return fmt.Sprintf("0x%02x", byte(o))
	}
}

// payloadSize returns the fixed payload width for op.
func payloadSize(op Opcode) (int, bool) {
	switch op {
	case OpSleep:
		return 4, true
	case OpStatus:
		return 0, true
	default:
		return 0, false
	}
}

// Command is a decoded power controller command.
type Command struct {
	Opcode  Opcode
	Payload []byte
}

// Sleep builds a Sleep command for the given number of seconds.
func Sleep(seconds uint32) Command {
	frame := EncodeSleep(seconds)
	return Command{Opcode: OpSleep, Payload: frame[1:]}
}

// Status builds a Status command.
func Status() Command {
	return Command{Opcode: OpStatus}
}

// Seconds returns the duration carried by a Sleep command.
func (c Command) Seconds() (uint32, error) {
	if c.Opcode != OpSleep || len(c.Payload) != 4 {
		return 0, ErrInvalidPayload.WithContext("opcode", c.Opcode.String())
	}
	return binary.BigEndian.Uint32(c.Payload), nil
}

// EncodeSleep returns the 5-byte Sleep frame: opcode then seconds, most significant byte first.
func EncodeSleep(seconds uint32) [SleepFrameSize]byte {
	var frame [SleepFrameSize]byte
	frame[0] = byte(OpSleep)
	binary.BigEndian.PutUint32(frame[1:], seconds)
	return frame
}

// Encode serialises a command after checking its payload width.
func Encode(c Command) ([]byte, error) {
	size, ok := payloadSize(c.Opcode)
	if !ok {
		return nil, ErrUnknownOpcode.WithContext("opcode", c.Opcode.String())
	}
	if len(c.Payload) != size {
		return nil, ErrInvalidPayload.
			WithContext("opcode", c.Opcode.String()).
			WithContext("length", len(c.Payload))
	}
	out := make([]byte, 0, 1+size)
	out = append(out, byte(c.Opcode))
	return append(out, c.Payload...), nil
}

// Decode parses one frame. Trailing bytes are rejected.
func Decode(frame []byte) (Command, error) {
	if len(frame) == 0 {
		return Command{}, ErrShortFrame
	}
	op := Opcode(frame[0])
	size, ok := payloadSize(op)
	if !ok {
		return Command{}, ErrUnknownOpcode.WithContext("opcode", op.String())
	}
	if len(frame)-1 < size {
		return Command{}, ErrShortFrame.WithContext("opcode", op.String())
	}
	if len(frame)-1 > size {
		return Command{}, ErrInvalidPayload.WithContext("length", len(frame)-1)
	}
	payload := make([]byte, size)
	copy(payload, frame[1:])
	return Command{Opcode: op, Payload: payload}, nil
}

// DecodeAck parses an acknowledgement from the power controller. The
// controller firmware does not send one yet, so this always fails.
// TODO: decode the status reply once the controller firmware defines its layout.
func DecodeAck([]byte) (Command, error) {
	return Command{}, ErrAckUnsupported
}
