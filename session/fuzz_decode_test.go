package session

import (
	"bytes"
	"testing"
)

func FuzzDecode(f *testing.F) {
	seed, err := Encode(&Credential{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		IssuedAt:     1_700_000_000,
		ExpiresAt:    1_700_003_600,
	})
	if err != nil {
		f.Fatalf("seed encode failed: %v", err)
	}
	f.Add(seed)
	f.Add([]byte{})
	f.Add([]byte{credentialFormatVersionCurrent})
	f.Add([]byte{credentialFormatVersionCurrent, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		cred, err := Decode(data)
		if err != nil {
			return
		}

		// Anything that decodes must re-encode to the same bytes.
		round, err := Encode(cred)
		if err != nil {
			t.Fatalf("re-encode of decoded credential failed: %v", err)
		}
		if !bytes.Equal(round, data) {
			t.Fatalf("decode/encode not canonical: %x vs %x", round, data)
		}
	})
}
