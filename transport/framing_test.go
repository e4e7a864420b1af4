package transport

import (
	"bytes"
	"testing"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello-frame")
	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("readFrame=%q want %q", got, payload)
	}
}

func TestReadFrameRejectsOversizedLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF}) // claims a ~4GiB frame
	if _, err := readFrame(&buf); err == nil {
		t.Fatalf("expected readFrame to reject a length prefix above MaxFrameSize")
	}
}

func TestReadFrameRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 10}) // claims 10 bytes, supplies none
	if _, err := readFrame(&buf); err == nil {
		t.Fatalf("expected readFrame to fail on truncated payload")
	}
}
