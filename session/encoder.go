package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	recordFormatVersionCurrent = 1

	maxEmailSize    = math.MaxUint8
	maxIdentitySize = 64 << 10
)

// Encode serializes r into the current binary record format.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil record")
	}
	if len(r.Email) > maxEmailSize {
		return nil, errors.New("email too long")
	}
	if len(r.Credential) > math.MaxUint16 {
		return nil, errors.New("credential too long")
	}
	if len(r.Identity) > maxIdentitySize {
		return nil, errors.New("identity too large")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 1 + len(r.Email) + 2 + len(r.Credential) + 4 + len(r.Identity) + 8)

	buf.WriteByte(recordFormatVersionCurrent)

	buf.WriteByte(byte(len(r.Email)))
	buf.WriteString(r.Email)

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.Credential))); err != nil {
		return nil, err
	}
	buf.WriteString(r.Credential)

	if err := binary.Write(&buf, binary.BigEndian, uint32(len(r.Identity))); err != nil {
		return nil, err
	}
	buf.Write(r.Identity)

	if err := binary.Write(&buf, binary.BigEndian, r.SavedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by [Encode]. Every malformed input is reported as
// [ErrRecordCorrupt].
func Decode(data []byte) (*Record, error) {
	r, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	return r, nil
}

func decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}

	emailLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	r.Email = string(email)

	var credLen uint16
	if err := binary.Read(reader, binary.BigEndian, &credLen); err != nil {
		return nil, err
	}
	if int(credLen) > reader.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	cred := make([]byte, credLen)
	if _, err := io.ReadFull(reader, cred); err != nil {
		return nil, err
	}
	r.Credential = string(cred)

	var identityLen uint32
	if err := binary.Read(reader, binary.BigEndian, &identityLen); err != nil {
		return nil, err
	}
	if identityLen > maxIdentitySize || int(identityLen) > reader.Len() {
		return nil, errors.New("identity length out of range")
	}
	if identityLen > 0 {
		r.Identity = make([]byte, identityLen)
		if _, err := io.ReadFull(reader, r.Identity); err != nil {
			return nil, err
		}
	}

	if err := binary.Read(reader, binary.BigEndian, &r.SavedAt); err != nil {
		return nil, err
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after record")
	}

	return r, nil
}
