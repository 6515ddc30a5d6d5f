package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("file-data-chunk-bytes")
	h := Build(0x03, FlagEncrypted|FlagRequiresAck, len(payload), 42, 1700000000)
	var tag [TagSize]byte
	for i := range tag {
		tag[i] = byte(i)
	}

	buf := Encode(h, payload, tag)
	assert.Len(t, buf, HeaderSize+len(payload)+TagSize)

	got, err := Decode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, h, got.Header)
	assert.Equal(t, payload, got.Payload)
	assert.Equal(t, tag, got.Tag)
}

func TestFlagsRoundTrip(t *testing.T) {
	all := []Flags{
		0,
		FlagEndOfMessage,
		FlagCompressed,
		FlagEncrypted,
		FlagRequiresAck,
		FlagHighPriority,
		FlagEndOfMessage | FlagCompressed | FlagEncrypted | FlagRequiresAck | FlagHighPriority,
	}
	for _, f := range all {
		assert.Equal(t, f, Flags(uint16(f)))
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := Decode(make([]byte, MinFrameSize-1), 0)
	assert.Error(t, err)
}

func TestDecodeRejectsOversizedPayload(t *testing.T) {
	h := Build(0x01, 0, 10, 1, 1)
	var tag [TagSize]byte
	buf := Encode(h, make([]byte, 10), tag)
	_, err := Decode(buf, 5)
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownMessageType(t *testing.T) {
	h := Build(0xFF, 0, 0, 1, 1)
	var tag [TagSize]byte
	buf := Encode(h, nil, tag)
	_, err := Decode(buf, 0)
	assert.Error(t, err)
}

func TestDecodeRejectsReservedFlagBits(t *testing.T) {
	h := Build(0x01, Flags(1<<15), 0, 1, 1)
	var tag [TagSize]byte
	buf := Encode(h, nil, tag)
	_, err := Decode(buf, 0)
	assert.Error(t, err)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	h := Build(0x01, 0, 0, 1, 1)
	h.Version = 2
	var tag [TagSize]byte
	buf := Encode(h, nil, tag)
	_, err := Decode(buf, 0)
	assert.Error(t, err)
}

func TestKnownMessageTypeCoversAllEightAndRejectsOthers(t *testing.T) {
	for code := 0x01; code <= 0x08; code++ {
		assert.True(t, KnownMessageType(uint8(code)), "code %#x should be known", code)
	}
	assert.False(t, KnownMessageType(0x00))
	assert.False(t, KnownMessageType(0x09))
	assert.False(t, KnownMessageType(0xFF))
}
