package hardwareauth

import (
	"bytes"

	"github.com/ebfe/scard"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
)

// Enumerate lists the hardware authenticators reachable from this host:
// any PC/SC readers with a card present, plus a software-simulated TPM
// and hardware token when useSimulated is true (for test and
// demonstration environments lacking real hardware).
func Enumerate(useSimulated bool) ([]DeviceInfo, error) {
	var devices []DeviceInfo

	cards, err := enumerateSmartCards()
	if err != nil {
		return nil, err
	}
	devices = append(devices, cards...)

	if useSimulated {
		devices = append(devices,
			DeviceInfo{
				DeviceType:          DeviceTPM,
				DeviceID:            "tpm-sim-0",
				Manufacturer:        "simulated",
				Model:               "software-tpm",
				SupportedAlgorithms: []string{string(cryptosuite.SigHybridEd25519MLDSA65)},
				Capabilities:        []string{"attestation", "endorsement-sign"},
			},
			DeviceInfo{
				DeviceType:          DeviceToken,
				DeviceID:            "token-sim-0",
				Manufacturer:        "simulated",
				Model:               "software-token",
				SupportedAlgorithms: []string{"blake2b-mac"},
				Capabilities:        []string{"challenge-response"},
			},
		)
	}
	return devices, nil
}

// enumerateSmartCards lists PC/SC readers with a card present. A system
// with no PC/SC service installed (common off CI and non-Windows hosts
// lacking pcscd) is not an error: it simply contributes zero devices.
func enumerateSmartCards() ([]DeviceInfo, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, nil
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, nil
	}

	var devices []DeviceInfo
	for _, reader := range readers {
		card, err := ctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
		if err != nil {
			continue
		}
		status, err := card.Status()
		_ = card.Disconnect(scard.LeaveCard)
		if err != nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			DeviceType:      DeviceSmartCard,
			DeviceID:        reader,
			Manufacturer:    "pc/sc",
			Model:           reader,
			Capabilities:    []string{"general-authenticate"},
			FirmwareVersion: atrSummary(status.Atr),
		})
	}
	return devices, nil
}

// BuildCapability constructs and initializes the hardware authenticator
// this host should use for handshake attestation: a simulated TPM when
// cfg.UseSimulated is set, otherwise the first PC/SC smart card found.
func BuildCapability(cfg HardwareAuthConfig, algo cryptosuite.SignatureAlgorithm) (Capability, error) {
	if cfg.UseSimulated {
		cap, err := NewTPMCapability(DeviceInfo{
			DeviceType:   DeviceTPM,
			DeviceID:     "tpm-sim-0",
			Manufacturer: "simulated",
			Model:        "software-tpm",
		}, algo, [32]byte{})
		if err != nil {
			return nil, err
		}
		if err := cap.Initialize(); err != nil {
			return nil, err
		}
		return cap, nil
	}

	cards, err := enumerateSmartCards()
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errs.NewHardwareAuth("no_hardware_authenticator",
			"no hardware authenticator available and use_simulated is false", nil)
	}

	conn, err := connectSmartCard(0)
	if err != nil {
		return nil, err
	}
	signer, err := cryptosuite.NewSigner(algo)
	if err != nil {
		conn.Close()
		return nil, err
	}
	cap := NewSmartCardCapability(cards[0], conn, signer, nil, 0x9A)
	if err := cap.Initialize(); err != nil {
		conn.Close()
		return nil, err
	}
	return cap, nil
}

// VerifyRemoteAttestation checks a peer-supplied attestation without
// requiring a live capability handle to the peer's device: the quote must
// begin with the nonce this side issued (binding the attestation to this
// handshake and rejecting replay of a captured one), and the signature
// must verify under the session's negotiated signature algorithm.
func VerifyRemoteAttestation(algo cryptosuite.SignatureAlgorithm, expectedNonce [32]byte, att Attestation) (bool, error) {
	if att.Nonce != expectedNonce {
		return false, errs.NewHardwareAuth("attestation_nonce_mismatch",
			"attestation nonce does not match the handshake random it must bind to", nil)
	}
	if len(att.Quote) < 32 || !bytes.Equal(att.Quote[:32], att.Nonce[:]) {
		return false, errs.NewHardwareAuth("attestation_quote_malformed",
			"attestation quote does not begin with its bound nonce", nil)
	}
	signer, err := cryptosuite.NewSigner(algo)
	if err != nil {
		return false, err
	}
	return signer.Verify(att.PublicKey, att.Quote, att.Signature), nil
}

// atrSummary renders a card's ATR as a fixed-width hex string, used only
// for the DeviceInfo.FirmwareVersion display field.
func atrSummary(atr []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, len(atr)*2)
	for _, b := range atr {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}
