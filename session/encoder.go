package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	credentialFormatVersionCurrent = 1
)

// ErrCredentialCorrupt is returned when a stored credential blob cannot be
// decoded. Callers treat it like an absent credential and re-authenticate.
var ErrCredentialCorrupt = errors.New("credential blob corrupt")

// Encode serializes a credential into the current binary schema: a version
// byte, the two tokens with uint16 length prefixes, then the two timestamps
// as big-endian int64.
func Encode(c *Credential) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(credentialFormatVersionCurrent)

	if err := writeToken(&buf, c.AccessToken); err != nil {
		return nil, err
	}
	if err := writeToken(&buf, c.RefreshToken); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, c.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, c.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a credential blob produced by [Encode]. Any structural
// problem is reported as [ErrCredentialCorrupt]; trailing garbage after a
// well-formed credential is rejected too.
func Decode(data []byte) (*Credential, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCredentialCorrupt
	}
	if version != credentialFormatVersionCurrent {
		return nil, ErrCredentialCorrupt
	}

	c := &Credential{}

	if c.AccessToken, err = readToken(reader); err != nil {
		return nil, ErrCredentialCorrupt
	}
	if c.RefreshToken, err = readToken(reader); err != nil {
		return nil, ErrCredentialCorrupt
	}

	if err := binary.Read(reader, binary.BigEndian, &c.IssuedAt); err != nil {
		return nil, ErrCredentialCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &c.ExpiresAt); err != nil {
		return nil, ErrCredentialCorrupt
	}

	if reader.Len() != 0 {
		return nil, ErrCredentialCorrupt
	}

	return c, nil
}

func writeToken(buf *bytes.Buffer, token string) error {
	if len(token) > math.MaxUint16 {
		return errors.New("token too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(token))); err != nil {
		return err
	}
	buf.WriteString(token)
	return nil
}

func readToken(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}
	token := make([]byte, length)
	if _, err := io.ReadFull(reader, token); err != nil {
		return "", err
	}
	return string(token), nil
}
