package message

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
)

func TestHandshakeRoundTrip(t *testing.T) {
	h := &Handshake{
		OfferedSuites:       []cryptosuite.Suite{cryptosuite.Default()},
		ChosenSuite:         cryptosuite.Default(),
		HasChosenSuite:      true,
		HardwareAttestation: []byte("attestation-blob"),
		CertChain:           [][]byte{[]byte("cert-a"), []byte("cert-b")},
		KeyExchangePublic:   []byte("kex-pub"),
		SignedTranscript:    []byte("transcript-sig"),
	}
	h.Random[0] = 0xAB

	decoded, err := Decode(TypeHandshake, h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestFileOpenRoundTrip(t *testing.T) {
	m := &FileOpen{
		Path:         "uploads/report.pdf",
		DeclaredSize: 3145728,
		Permissions:  0644,
		Metadata:     map[string]string{"owner": "alice"},
	}
	m.DeclaredHash[0] = 0xFF

	decoded, err := Decode(TypeFileOpen, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestFileDataRoundTrip(t *testing.T) {
	m := &FileData{
		FileID:         uuid.New(),
		ChunkIndex:     2,
		Data:           []byte("chunk-bytes"),
		ChunkSignature: []byte("sig"),
	}
	m.ChunkHash[3] = 0x42

	decoded, err := Decode(TypeFileData, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestFileCloseRoundTrip(t *testing.T) {
	m := &FileClose{
		FileID:          uuid.New(),
		GlobalSignature: []byte("global-sig"),
		Statistics:      TransferStatistics{BytesTransferred: 3145728, DurationMillis: 1200, ChunkCount: 3},
	}
	m.FinalHash[0] = 0x01

	decoded, err := Decode(TypeFileClose, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestHeartbeatRoundTrip(t *testing.T) {
	m := &Heartbeat{SessionID: uuid.New(), HealthStatus: HealthWarning, Timestamp: 1700000000}
	decoded, err := Decode(TypeHeartbeat, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestPolicyUpdateRoundTrip(t *testing.T) {
	m := &PolicyUpdate{
		Kind:     PolicyKindRules,
		PolicyID: "policy-1",
		Version:  2,
		Rules:    []PolicyRule{{Name: "max_rate", Value: "10MiB/s"}},
	}
	decoded, err := Decode(TypePolicyUpdate, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestPolicyUpdateRekeyMarkerRoundTrip(t *testing.T) {
	m := &PolicyUpdate{Kind: PolicyKindRekeyMarker, KeyGeneration: 7, EffectiveAt: 1700000100}
	decoded, err := Decode(TypePolicyUpdate, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestEmergencyStopRoundTrip(t *testing.T) {
	m := &EmergencyStop{SessionID: uuid.New(), Reason: "operator abort", Timestamp: 1700000200, Signature: []byte("sig")}
	decoded, err := Decode(TypeEmergencyStop, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestDirListRoundTrip(t *testing.T) {
	m := &DirList{
		Path: "/uploads",
		Entries: []DirEntry{
			{Name: "report.pdf", IsDir: false, Size: 3145728, ModTime: 1700000000},
			{Name: "archive", IsDir: true},
		},
	}
	decoded, err := Decode(TypeDirList, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestDecodeUnknownTypeIsProtocolError(t *testing.T) {
	_, err := Decode(Type(0xEE), nil)
	assert.Error(t, err)
}

func TestDecodeTruncatedPayloadErrors(t *testing.T) {
	m := &FileOpen{Path: "x", DeclaredSize: 1}
	full := m.Encode()
	_, err := Decode(TypeFileOpen, full[:len(full)-1])
	assert.Error(t, err)
}
