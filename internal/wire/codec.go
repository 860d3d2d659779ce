package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ehrlich-b/go-simctl/internal/constants"
	"github.com/ehrlich-b/go-simctl/internal/util"
)

// ShortHeader is returned by DecodeFrame when the pre-header declares a
// zero header length (spec §4.1 step 2). The header is read into its own
// allocation, so its length is not checked against the caller's buffer;
// only the payload is limited (and truncated) by that buffer.
type ShortHeader struct {
	HeaderLen int
}

func (e *ShortHeader) Error() string {
	return fmt.Sprintf("invalid header length %d", e.HeaderLen)
}

// IOError wraps a hard read/write failure on the underlying stream. The
// caller must treat the connection as lost (spec §4.1 step 5, §7 IoError).
type IOError struct {
	Op   string
	Trials int
	Inner error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("wire: %s failed after %d trials: %v", e.Op, e.Trials, e.Inner)
}
func (e *IOError) Unwrap() error { return e.Inner }

// readFull retries short reads up to constants.MaxReadTrials times before
// giving up, matching VS_MSG_MAX_READ_TRIALS in the original framing.
func readFull(r io.Reader, buf []byte) error {
	read := 0
	trials := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		read += n
		if err != nil {
			if err == io.EOF && read == len(buf) {
				break
			}
			return &IOError{Op: "read", Trials: trials + 1, Inner: err}
		}
		if n == 0 {
			trials++
			if trials >= constants.MaxReadTrials {
				return &IOError{Op: "read", Trials: trials, Inner: io.ErrNoProgress}
			}
		}
	}
	return nil
}

// writeFull retries short writes up to constants.MaxWriteTrials times.
func writeFull(w io.Writer, buf []byte) error {
	written := 0
	trials := 0
	for written < len(buf) {
		n, err := w.Write(buf[written:])
		written += n
		if err != nil {
			return &IOError{Op: "write", Trials: trials + 1, Inner: err}
		}
		if n == 0 {
			trials++
			if trials >= constants.MaxWriteTrials {
				return &IOError{Op: "write", Trials: trials, Inner: io.ErrNoProgress}
			}
		}
	}
	return nil
}

// payloadLength computes content-length per spec §4.1 step 1: JSON payload
// length is the compact UTF-8 serialization length; plain text counts a
// trailing NUL; binary uses the caller-supplied length verbatim.
func payloadLength(ct ContentType, payload []byte) int {
	if ct == ContentText {
		return len(payload) + 1
	}
	return len(payload)
}

// Encode builds a complete frame: pre_header || header_bytes || payload,
// per spec §4.1 Encode. uuid may be empty to omit the header field.
func Encode(payload []byte, ct ContentType, uuid string) ([]byte, error) {
	h := Header{
		ContentType:   ct,
		ContentLength: payloadLength(ct, payload),
	}
	if ct != ContentBinary {
		h.ContentEncoding = "UTF-8"
	}
	if uuid != "" {
		h.UUID = uuid
	}

	headerBytes, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal header: %w", err)
	}
	if len(headerBytes) > constants.MaxHeaderLen {
		return nil, &HeaderTooLong{Len: len(headerBytes)}
	}

	total := 2 + len(headerBytes) + h.ContentLength
	out := GetFrameBuffer(total)
	binary.BigEndian.PutUint16(out[0:2], uint16(len(headerBytes)))
	copy(out[2:2+len(headerBytes)], headerBytes)
	copy(out[2+len(headerBytes):], payload)
	if ct == ContentText {
		out[total-1] = 0 // the trailing NUL counted by payloadLength
	}
	return out, nil
}

// DecodeFrame reads exactly one frame from r into buf, per spec §4.1
// Decode. It returns the parsed Header, the payload slice (a sub-slice of
// buf, truncated if content-length exceeds len(buf)), and the frame's true
// total payload length so the caller can detect truncation.
func DecodeFrame(r io.Reader, buf []byte) (Header, []byte, int, error) {
	var preHeader [2]byte
	if err := readFull(r, preHeader[:]); err != nil {
		return Header{}, nil, 0, err
	}
	headerLen := int(binary.BigEndian.Uint16(preHeader[:]))
	if headerLen == 0 {
		return Header{}, nil, 0, &ShortHeader{HeaderLen: headerLen}
	}

	headerBytes := make([]byte, headerLen)
	if err := readFull(r, headerBytes); err != nil {
		return Header{}, nil, 0, err
	}

	var h Header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return Header{}, nil, 0, fmt.Errorf("wire: malformed header JSON: %w", err)
	}
	if h.UUID != "" {
		canonical, err := util.ParseTxnID(h.UUID)
		if err != nil {
			return Header{}, nil, 0, fmt.Errorf("wire: malformed uuid %q: %w", h.UUID, err)
		}
		h.UUID = canonical
	}

	trueLen := h.ContentLength
	readLen := trueLen
	truncated := false
	if readLen > len(buf) {
		readLen = len(buf)
		truncated = true
	}

	payload := buf[:readLen]
	if readLen > 0 {
		if err := readFull(r, payload); err != nil {
			return Header{}, nil, 0, err
		}
	}
	if truncated {
		remaining := trueLen - readLen
		discard := make([]byte, 4096)
		for remaining > 0 {
			n := remaining
			if n > len(discard) {
				n = len(discard)
			}
			if err := readFull(r, discard[:n]); err != nil {
				return Header{}, nil, 0, err
			}
			remaining -= n
		}
	}

	return h, payload, trueLen, nil
}

// WriteReply serializes a Reply as JSON, frames it, and writes it in full,
// per spec §4.1's reply helper. The nonzero-return semantics of the
// original C helper (0 = full write, positive = short write, negative =
// I/O failure) are replaced with an idiomatic error return.
func WriteReply(w io.Writer, reply Reply, uuid string) error {
	body := map[string]any{"type": string(reply.Type)}
	switch reply.Type {
	case ReplyResult:
		for k, v := range reply.Fields {
			body[k] = v
		}
	default:
		body["value"] = reply.Value
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("wire: marshal reply: %w", err)
	}
	frame, err := Encode(payload, ContentJSON, uuid)
	if err != nil {
		return err
	}
	defer PutFrameBuffer(frame)
	return writeFull(w, frame)
}

// WriteCommand frames an arbitrary JSON command payload, used by test
// harnesses and the example client-side helpers to drive a session.
func WriteCommand(w io.Writer, cmd any, uuid string) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("wire: marshal command: %w", err)
	}
	frame, err := Encode(payload, ContentJSON, uuid)
	if err != nil {
		return err
	}
	defer PutFrameBuffer(frame)
	return writeFull(w, frame)
}

// DecodeCommand parses a decoded JSON payload into a Command, keeping the
// raw field map around for command-specific fields (sel, cb, path, value,
// time, time_unit) that vary per command (spec §3).
func DecodeCommand(payload []byte) (Command, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Command{}, fmt.Errorf("wire: malformed command JSON: %w", err)
	}
	name, _ := raw["command"].(string)
	return Command{Name: name, Raw: raw}, nil
}
