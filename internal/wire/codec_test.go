package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte(`{"command":"info","value":"hi"}`)
	frame, err := Encode(payload, ContentJSON, "")
	require.NoError(t, err)

	buf := make([]byte, 4096)
	h, got, total, err := DecodeFrame(bytes.NewReader(frame), buf)
	require.NoError(t, err)
	require.Equal(t, ContentJSON, h.ContentType)
	require.Equal(t, len(payload), total)
	require.Equal(t, payload, got)
}

func TestEncodeDecodeRoundTripUUID(t *testing.T) {
	payload := []byte(`{"command":"info","value":"x"}`)
	uuid := "550e8400-e29b-41d4-a716-446655440000"
	frame, err := Encode(payload, ContentJSON, uuid)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	h, _, _, err := DecodeFrame(bytes.NewReader(frame), buf)
	require.NoError(t, err)
	require.Equal(t, uuid, h.UUID)
}

func TestDecodeFrameRejectsMalformedUUID(t *testing.T) {
	payload := []byte(`{"command":"info","value":"x"}`)
	frame, err := Encode(payload, ContentJSON, "")
	require.NoError(t, err)

	// Splice a non-canonical uuid into the already-encoded header rather
	// than going through Encode, which would happily accept any string.
	headerLen := int(binary.BigEndian.Uint16(frame[0:2]))
	header := string(frame[2 : 2+headerLen])
	header = header[:len(header)-1] + `,"uuid":"not-a-uuid"}`
	rebuilt := make([]byte, 2+len(header))
	binary.BigEndian.PutUint16(rebuilt[0:2], uint16(len(header)))
	copy(rebuilt[2:], header)

	buf := make([]byte, 4096)
	_, _, _, err = DecodeFrame(bytes.NewReader(rebuilt), buf)
	require.Error(t, err)
}

func TestPreHeaderLaw(t *testing.T) {
	payload := []byte(`{"command":"get","sel":"sim_time"}`)
	frame, err := Encode(payload, ContentJSON, "")
	require.NoError(t, err)

	declared := int(binary.BigEndian.Uint16(frame[0:2]))

	buf := make([]byte, 4096)
	_, _, _, err = DecodeFrame(bytes.NewReader(frame), buf)
	require.NoError(t, err)

	// The header bytes start at offset 2 and run for `declared` bytes.
	headerBytes := frame[2 : 2+declared]
	require.Equal(t, declared, len(headerBytes))
}

func TestDecodeFrameZeroHeaderLen(t *testing.T) {
	frame := []byte{0x00, 0x00}
	buf := make([]byte, 4096)
	_, _, _, err := DecodeFrame(bytes.NewReader(frame), buf)
	require.Error(t, err)
	var shortHeader *ShortHeader
	require.ErrorAs(t, err, &shortHeader)
}

func TestDecodeFrameTruncatesOversizedPayload(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 100)
	wrapped := []byte(`{"command":"set","path":"s","value":"` + string(payload) + `"}`)
	frame, err := Encode(wrapped, ContentJSON, "")
	require.NoError(t, err)

	small := make([]byte, 16)
	_, got, total, err := DecodeFrame(bytes.NewReader(frame), small)
	require.NoError(t, err)
	require.Equal(t, 16, len(got))
	require.Equal(t, len(wrapped), total)
	require.Greater(t, total, len(got))
}

func TestEncodeLargeBinaryPayloadOK(t *testing.T) {
	// Large payloads don't inflate the header; only the header itself can
	// blow the u16 pre-header budget.
	_, err := Encode(bytes.Repeat([]byte("x"), 70000), ContentBinary, "")
	require.NoError(t, err)
}

func TestEncodeHeaderTooLong(t *testing.T) {
	oversizedUUID := string(bytes.Repeat([]byte("a"), 70000))
	_, err := Encode([]byte("x"), ContentJSON, oversizedUUID)
	require.Error(t, err)
	var tooLong *HeaderTooLong
	require.ErrorAs(t, err, &tooLong)
}

func TestWriteReplyAck(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReply(&buf, Reply{Type: ReplyAck, Value: "command info received"}, "")
	require.NoError(t, err)

	decodeBuf := make([]byte, 4096)
	h, payload, _, err := DecodeFrame(bytes.NewReader(buf.Bytes()), decodeBuf)
	require.NoError(t, err)
	require.Equal(t, ContentJSON, h.ContentType)
	require.Contains(t, string(payload), `"type":"ack"`)
	require.Contains(t, string(payload), "command info received")
}

func TestWriteReplyResultFields(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReply(&buf, Reply{Type: ReplyResult, Fields: map[string]any{"time": 0.0}}, "")
	require.NoError(t, err)

	decodeBuf := make([]byte, 4096)
	_, payload, _, err := DecodeFrame(bytes.NewReader(buf.Bytes()), decodeBuf)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"time":0`)
}

func TestDecodeCommandUnknown(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"command":"bogus"}`))
	require.NoError(t, err)
	require.Equal(t, "bogus", cmd.Name)
}
