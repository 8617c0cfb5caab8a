// FILE: src/internal/protocol/frame_test.go
package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupMessage_Golden(t *testing.T) {
	want := []byte{0x00, 0x00, 0x00, 0x3d, 0x00, 0x03, 0x00, 0x00}
	want = append(want, "user\x00alice\x00"...)
	want = append(want, "database\x00admin\x00"...)
	want = append(want, "application_name\x00pgmoneta\x00"...)
	want = append(want, 0x00)

	got := StartupMessage("alice")
	assert.Equal(t, want, got)
	assert.Len(t, got, 61)
}

func TestStartupMessage_LengthTracksUsername(t *testing.T) {
	for _, name := range []string{"", "a", "pgmoneta_admin_with_a_long_name"} {
		msg := StartupMessage(name)
		assert.Len(t, msg, 56+len(name))
		assert.Equal(t, uint32(len(msg)), binary.BigEndian.Uint32(msg[:4]))
	}
}

func TestStartupMessage_RoundTrip(t *testing.T) {
	params, err := ReadStartupMessage(bytes.NewReader(StartupMessage("bob")))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"user":             "bob",
		"database":         "admin",
		"application_name": "pgmoneta",
	}, params)
}

func TestSASLInitialResponse(t *testing.T) {
	clientFirst := "n,,n=alice,r=abc"
	frame := SASLInitialResponse(clientFirst)

	assert.Equal(t, TagPassword, frame[0])
	assert.Equal(t, uint32(len(frame)), binary.BigEndian.Uint32(frame[1:5]))
	assert.Equal(t, "SCRAM-SHA-256\x00\x00\x00\x00 "+clientFirst, string(frame[5:]))

	body, err := ReadPasswordMessage(bytes.NewReader(frame))
	require.NoError(t, err)
	parsed, err := ParseSASLInitialResponse(body)
	require.NoError(t, err)
	assert.Equal(t, clientFirst, parsed)
}

func TestSASLResponse(t *testing.T) {
	clientFinal := "c=biws,r=abcdef,p=cHJvb2Y="
	frame := SASLResponse(clientFinal)

	assert.Equal(t, TagPassword, frame[0])
	assert.Equal(t, uint32(1+4+len(clientFinal)), binary.BigEndian.Uint32(frame[1:5]))

	body, err := ReadPasswordMessage(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, clientFinal, string(body))
}

func TestParseSASLInitialResponse_WrongMechanism(t *testing.T) {
	_, err := ParseSASLInitialResponse([]byte("SCRAM-SHA-1\x00\x00\x00\x00 n,,n=a,r=b"))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestReadAuthMessage(t *testing.T) {
	t.Run("PayloadAtOffsetNine", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteAuthMessage(&buf, AuthSASLContinue, []byte("r=abc,s=c2FsdA==,i=4096")))

		raw := buf.Bytes()
		assert.Equal(t, "r=abc,s=c2FsdA==,i=4096", string(raw[9:]))

		msg, err := ReadAuthMessage(&buf)
		require.NoError(t, err)
		assert.Equal(t, AuthSASLContinue, msg.Type)
		assert.Equal(t, "r=abc,s=c2FsdA==,i=4096", string(msg.Data))
	})

	t.Run("EmptyOK", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteAuthMessage(&buf, AuthOK, nil))
		msg, err := ReadAuthMessage(&buf)
		require.NoError(t, err)
		assert.Equal(t, AuthOK, msg.Type)
		assert.Empty(t, msg.Data)
	})

	t.Run("WrongTagStopsAtTag", func(t *testing.T) {
		r := bytes.NewReader([]byte{'E', 0, 0, 0, 4})
		_, err := ReadAuthMessage(r)

		var tagErr *TagError
		require.ErrorAs(t, err, &tagErr)
		assert.Equal(t, byte('E'), tagErr.Tag)
		assert.Equal(t, 4, r.Len())
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ReadAuthMessage(bytes.NewReader(nil))
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := ReadAuthMessage(bytes.NewReader([]byte{'R', 0, 0, 0, 20, 0, 0, 0, 11, 'r'}))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("LengthTooSmall", func(t *testing.T) {
		_, err := ReadAuthMessage(bytes.NewReader([]byte{'R', 0, 0, 0, 4, 0, 0, 0, 0}))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("LengthTooLarge", func(t *testing.T) {
		_, err := ReadAuthMessage(bytes.NewReader([]byte{'R', 0x7f, 0, 0, 0, 0, 0, 0, 0}))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})
}

func TestReadStartupMessage_Errors(t *testing.T) {
	t.Run("BadMagic", func(t *testing.T) {
		msg := StartupMessage("alice")
		binary.BigEndian.PutUint32(msg[4:8], 80877103)
		_, err := ReadStartupMessage(bytes.NewReader(msg))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("MissingTerminator", func(t *testing.T) {
		msg := StartupMessage("alice")
		msg[len(msg)-1] = 'x'
		_, err := ReadStartupMessage(bytes.NewReader(msg))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})
}
