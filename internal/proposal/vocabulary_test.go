package proposal

import "testing"

func TestClassify(t *testing.T) {
	v := DefaultVocabulary()

	cases := []struct {
		token string
		want  Kind
	}{
		{"aes256", KindEncryption},
		{"aes128gcm16", KindEncryption},
		{"3des", KindEncryption},
		{"sha256", KindIntegrity},
		{"md5", KindIntegrity},
		{"modp2048", KindDHGroup},
		{"curve25519", KindDHGroup},
		{"ecp521", KindDHGroup},
		{"nonsense", KindUnknown},
		{"", KindUnknown},
	}
	for _, tc := range cases {
		if got := v.Classify(tc.token); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestIsAEAD(t *testing.T) {
	v := DefaultVocabulary()

	for _, id := range []string{"aes128gcm16", "aes256gcm16", "chacha20poly1305"} {
		if !v.IsAEAD(id) {
			t.Errorf("expected %s to be AEAD", id)
		}
	}
	for _, id := range []string{"aes256", "3des", "sha256", "modp2048", "unknown"} {
		if v.IsAEAD(id) {
			t.Errorf("expected %s not to be AEAD", id)
		}
	}
}

func TestFromOptions_InheritsAEAD(t *testing.T) {
	v := FromOptions(&Options{
		Encryption: []Algorithm{
			{ID: "aes256", Label: "AES-256"},
			{ID: "aes256gcm16", Label: "AES-256-GCM"},
			{ID: "aes128ccm8", Label: "AES-128-CCM"}, // not in the baked set
		},
		Integrity: []Algorithm{{ID: "sha256", Label: "SHA-256"}},
		DHGroups:  []Algorithm{{ID: "modp2048", Label: "MODP 2048"}},
	})

	if !v.IsAEAD("aes256gcm16") {
		t.Error("expected AEAD flag inherited from the baked-in vocabulary")
	}
	if !v.IsAEAD("aes128ccm8") {
		t.Error("expected AEAD detected by suffix for unknown cipher")
	}
	if v.IsAEAD("aes256") {
		t.Error("expected aes256 not to be AEAD")
	}
	if got := v.Classify("sha256"); got != KindIntegrity {
		t.Errorf("Classify(sha256) = %v", got)
	}
}

func TestFromOptions_NilAndEmptyFallBack(t *testing.T) {
	if v := FromOptions(nil); v.Classify("aes256") != KindEncryption {
		t.Error("nil options must fall back to the baked-in vocabulary")
	}
	if v := FromOptions(&Options{}); v.Classify("modp2048") != KindDHGroup {
		t.Error("empty options must fall back to the baked-in vocabulary")
	}
}
