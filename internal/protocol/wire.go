package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Opcode is the integer operation selector sent as the first field of a
// request frame.
type Opcode uint32

const (
	OpAuthenticate Opcode = 1
	OpRegister     Opcode = 2
	OpListCatalog  Opcode = 3
)

func (o Opcode) String() string {
	switch o {
	case OpAuthenticate:
		return "authenticate"
	case OpRegister:
		return "register"
	case OpListCatalog:
		return "list_catalog"
	default:
		return fmt.Sprintf("opcode(%d)", uint32(o))
	}
}

// The request frame is a big-endian uint32 opcode followed by a big-endian
// uint16 payload byte length and the UTF-8 payload. Boolean responses are a
// single byte, nonzero meaning true. The catalog response has no length
// prefix: the peer closing the connection ends the body. This framing is
// fixed for wire compatibility and must not change.
const maxPayloadBytes = 0xFFFF

func writeRequest(w io.Writer, op Opcode, payload string) error {
	if len(payload) > maxPayloadBytes {
		return fmt.Errorf("payload of %d bytes exceeds frame limit", len(payload))
	}
	buf := bufio.NewWriter(w)
	if err := binary.Write(buf, binary.BigEndian, uint32(op)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(payload))); err != nil {
		return err
	}
	if _, err := buf.WriteString(payload); err != nil {
		return err
	}
	return buf.Flush()
}

func readRequest(r io.Reader) (Opcode, string, error) {
	var op uint32
	if err := binary.Read(r, binary.BigEndian, &op); err != nil {
		return 0, "", err
	}
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return 0, "", err
	}
	payload := make([]byte, int(length))
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, "", err
	}
	return Opcode(op), string(payload), nil
}

func writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}
