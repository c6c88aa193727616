package diag

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func testEnvelope(seq int64) *Envelope {
	return &Envelope{
		ContractVersion: "0.4.0",
		PlanID:          "plan-001",
		Seq:             seq,
		Kind:            DescriptorKind,
		Ts:              "2026-08-25T10:00:00Z",
		Descriptor: &Descriptor{
			Mnemonic:    "Link",
			OwnerLabel:  "//app:bin",
			ActionKey:   "abc123",
			Args:        []string{"/usr/bin/ld", "-o", "out/bin"},
			InputPaths:  []string{"out/lib.o"},
			OutputPaths: []string{"out/bin"},
			Env:         []EnvEntry{{Name: "PATH", Value: "/usr/bin"}},
		},
	}
}

func TestFrameRoundTrip_SingleDescriptor(t *testing.T) {
	envelope := testEnvelope(1)

	frame, err := EncodeEnvelope(envelope)
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}

	decoder := NewFrameDecoder(bytes.NewReader(frame))
	payload, err := decoder.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	decoded, err := DecodeEnvelope(payload)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	if decoded.PlanID != envelope.PlanID {
		t.Errorf("PlanID = %q, want %q", decoded.PlanID, envelope.PlanID)
	}
	if decoded.Seq != envelope.Seq {
		t.Errorf("Seq = %d, want %d", decoded.Seq, envelope.Seq)
	}
	if decoded.Kind != DescriptorKind {
		t.Errorf("Kind = %q, want %q", decoded.Kind, DescriptorKind)
	}
	if decoded.Descriptor == nil {
		t.Fatal("Descriptor missing after round trip")
	}
	if decoded.Descriptor.Mnemonic != "Link" {
		t.Errorf("Mnemonic = %q, want Link", decoded.Descriptor.Mnemonic)
	}
	if decoded.Descriptor.ActionKey != "abc123" {
		t.Errorf("ActionKey = %q, want abc123", decoded.Descriptor.ActionKey)
	}
	if len(decoded.Descriptor.Args) != 3 || decoded.Descriptor.Args[0] != "/usr/bin/ld" {
		t.Errorf("Args = %v", decoded.Descriptor.Args)
	}
	if len(decoded.Descriptor.Env) != 1 || decoded.Descriptor.Env[0].Name != "PATH" {
		t.Errorf("Env = %v", decoded.Descriptor.Env)
	}
}

func TestFrameDecoder_MultipleDescriptors(t *testing.T) {
	// Encode a descriptor stream into a single buffer
	var buf bytes.Buffer
	for seq := int64(1); seq <= 3; seq++ {
		frame, err := EncodeEnvelope(testEnvelope(seq))
		if err != nil {
			t.Fatalf("EncodeEnvelope failed: %v", err)
		}
		buf.Write(frame)
	}

	decoder := NewFrameDecoder(&buf)
	var decoded []*Envelope

	for {
		payload, err := decoder.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}

		env, err := DecodeEnvelope(payload)
		if err != nil {
			t.Fatalf("DecodeEnvelope failed: %v", err)
		}
		decoded = append(decoded, env)
	}

	if len(decoded) != 3 {
		t.Fatalf("decoded %d envelopes, want 3", len(decoded))
	}
	for i, env := range decoded {
		if env.Seq != int64(i+1) {
			t.Errorf("envelopes[%d].Seq = %d, want %d", i, env.Seq, i+1)
		}
	}
}

// Per CONTRACT_EXPORT.md a truncated frame is a fatal stream error:
// the reader cannot resynchronize on a byte stream.
func TestFrameDecoder_PartialFrame(t *testing.T) {
	frame, err := EncodeEnvelope(testEnvelope(1))
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}

	// Truncate the frame (keep only length prefix + half payload)
	truncated := frame[:LengthPrefixSize+len(frame[LengthPrefixSize:])/2]

	decoder := NewFrameDecoder(bytes.NewReader(truncated))
	_, err = decoder.ReadFrame()

	if err == nil {
		t.Fatal("expected error for truncated frame")
	}

	if !IsFatalFrameError(err) {
		t.Errorf("expected fatal frame error, got: %v", err)
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}

	if frameErr.Kind != FrameErrorPartial {
		t.Errorf("Kind = %v, want FrameErrorPartial", frameErr.Kind)
	}

	if !frameErr.IsFatal() {
		t.Error("FrameErrorPartial.IsFatal() should return true")
	}
}

// Per CONTRACT_EXPORT.md frames above 16 MiB are invalid and must be
// rejected before the payload is read.
func TestFrameDecoder_OversizedFrame(t *testing.T) {
	// A length prefix claiming a payload larger than MaxPayloadSize
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(MaxPayloadSize+1)); err != nil {
		t.Fatalf("binary.Write failed: %v", err)
	}

	decoder := NewFrameDecoder(&buf)
	_, err := decoder.ReadFrame()

	if err == nil {
		t.Fatal("expected error for oversized frame")
	}

	if !IsFatalFrameError(err) {
		t.Errorf("expected fatal frame error, got: %v", err)
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}

	if frameErr.Kind != FrameErrorTooLarge {
		t.Errorf("Kind = %v, want FrameErrorTooLarge", frameErr.Kind)
	}

	if !frameErr.IsFatal() {
		t.Error("FrameErrorTooLarge.IsFatal() should return true")
	}
}

func TestFrameDecoder_EmptyStream(t *testing.T) {
	decoder := NewFrameDecoder(bytes.NewReader(nil))
	_, err := decoder.ReadFrame()

	if err != io.EOF {
		t.Errorf("expected io.EOF, got: %v", err)
	}
}

func TestFrameDecoder_TruncatedLengthPrefix(t *testing.T) {
	// Only 2 bytes instead of 4
	partial := []byte{0x00, 0x00}

	decoder := NewFrameDecoder(bytes.NewReader(partial))
	_, err := decoder.ReadFrame()

	if err == nil {
		t.Fatal("expected error for truncated length prefix")
	}

	if !IsFatalFrameError(err) {
		t.Errorf("expected fatal frame error, got: %v", err)
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}

	if frameErr.Kind != FrameErrorPartial {
		t.Errorf("Kind = %v, want FrameErrorPartial", frameErr.Kind)
	}
}

// Decode errors are non-fatal: the frame was read correctly, only its
// content could not be decoded, so the caller may skip it.
func TestFrameDecoder_MalformedMsgpack(t *testing.T) {
	garbage := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	frame := make([]byte, LengthPrefixSize+len(garbage))
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(garbage)))
	copy(frame[LengthPrefixSize:], garbage)

	decoder := NewFrameDecoder(bytes.NewReader(frame))
	payload, err := decoder.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	_, err = DecodeEnvelope(payload)
	if err == nil {
		t.Fatal("expected decode error for malformed msgpack")
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}

	if frameErr.Kind != FrameErrorDecode {
		t.Errorf("Kind = %v, want FrameErrorDecode", frameErr.Kind)
	}

	if IsFatalFrameError(err) {
		t.Error("decode errors should not be fatal")
	}
}

func TestFrameError_ErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *FrameError
		contains string
	}{
		{
			name:     "partial without underlying error",
			err:      &FrameError{Kind: FrameErrorPartial, Msg: "truncated"},
			contains: "truncated",
		},
		{
			name: "partial with underlying error",
			err: &FrameError{
				Kind: FrameErrorPartial,
				Msg:  "read failed",
				Err:  io.ErrUnexpectedEOF,
			},
			contains: "unexpected EOF",
		},
		{
			name:     "oversized",
			err:      &FrameError{Kind: FrameErrorTooLarge, Msg: "payload too big"},
			contains: "too big",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			if !bytes.Contains([]byte(msg), []byte(tt.contains)) {
				t.Errorf("error message %q does not contain %q", msg, tt.contains)
			}
		})
	}
}

func TestFrameError_Unwrap(t *testing.T) {
	underlying := io.ErrUnexpectedEOF
	err := &FrameError{
		Kind: FrameErrorPartial,
		Msg:  "test",
		Err:  underlying,
	}

	if !errors.Is(err, underlying) {
		t.Error("Unwrap should allow errors.Is to find underlying error")
	}
}

func TestIsFatalFrameError_NonFrameError(t *testing.T) {
	regularErr := errors.New("regular error")
	if IsFatalFrameError(regularErr) {
		t.Error("regular errors should not be fatal frame errors")
	}

	if IsFatalFrameError(nil) {
		t.Error("nil should not be a fatal frame error")
	}

	if IsFatalFrameError(io.EOF) {
		t.Error("io.EOF should not be a fatal frame error")
	}
}
