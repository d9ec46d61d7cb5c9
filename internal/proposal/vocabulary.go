// Package proposal converts between structured algorithm selections and the
// hyphen/comma-delimited proposal strings a strongSwan daemon expects.
package proposal

import "strings"

// Kind classifies a proposal token against the algorithm vocabulary.
type Kind int

const (
	KindUnknown Kind = iota
	KindEncryption
	KindIntegrity
	KindDHGroup
)

func (k Kind) String() string {
	switch k {
	case KindEncryption:
		return "encryption"
	case KindIntegrity:
		return "integrity"
	case KindDHGroup:
		return "dh_group"
	default:
		return "unknown"
	}
}

// Algorithm is one entry in the closed algorithm vocabulary.
type Algorithm struct {
	ID    string `json:"value"`
	Label string `json:"label"`
	Kind  Kind   `json:"-"`
	// AEAD marks authenticated-encryption ciphers. These provide integrity
	// themselves, so a separate integrity token must never be emitted.
	AEAD bool `json:"-"`
}

// Options is the wire shape of the backend /crypto-options payload.
type Options struct {
	Encryption []Algorithm `json:"encryption"`
	Integrity  []Algorithm `json:"integrity"`
	DHGroups   []Algorithm `json:"dh_groups"`
}

// Vocabulary maps algorithm identifiers to their classification.
type Vocabulary struct {
	byID map[string]Algorithm
}

// NewVocabulary builds a vocabulary from algorithm entries. IDs are
// case-insensitive; later entries win on duplicates.
func NewVocabulary(algs []Algorithm) *Vocabulary {
	v := &Vocabulary{byID: make(map[string]Algorithm, len(algs))}
	for _, a := range algs {
		v.byID[strings.ToLower(a.ID)] = a
	}
	return v
}

// FromOptions builds a vocabulary from a backend crypto-options payload.
// AEAD flags cannot be carried over the wire, so entries whose ID is also in
// the baked-in vocabulary inherit its AEAD flag; unknown GCM/poly1305-style
// identifiers are detected by suffix.
func FromOptions(opts *Options) *Vocabulary {
	if opts == nil {
		return DefaultVocabulary()
	}
	baked := DefaultVocabulary()
	var algs []Algorithm
	for _, e := range opts.Encryption {
		a := Algorithm{ID: e.ID, Label: e.Label, Kind: KindEncryption}
		if b, ok := baked.Lookup(e.ID); ok && b.Kind == KindEncryption {
			a.AEAD = b.AEAD
		} else {
			a.AEAD = looksAEAD(e.ID)
		}
		algs = append(algs, a)
	}
	for _, i := range opts.Integrity {
		algs = append(algs, Algorithm{ID: i.ID, Label: i.Label, Kind: KindIntegrity})
	}
	for _, d := range opts.DHGroups {
		algs = append(algs, Algorithm{ID: d.ID, Label: d.Label, Kind: KindDHGroup})
	}
	if len(algs) == 0 {
		return baked
	}
	return NewVocabulary(algs)
}

func looksAEAD(id string) bool {
	id = strings.ToLower(id)
	return strings.Contains(id, "gcm") || strings.Contains(id, "ccm") ||
		strings.Contains(id, "poly1305")
}

// Lookup returns the vocabulary entry for an identifier.
func (v *Vocabulary) Lookup(id string) (Algorithm, bool) {
	a, ok := v.byID[strings.ToLower(id)]
	return a, ok
}

// Classify returns the kind of a proposal token. Tokens outside the
// vocabulary classify as KindUnknown.
func (v *Vocabulary) Classify(token string) Kind {
	a, ok := v.byID[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return KindUnknown
	}
	return a.Kind
}

// IsAEAD reports whether an encryption identifier is an AEAD cipher.
func (v *Vocabulary) IsAEAD(id string) bool {
	a, ok := v.byID[strings.ToLower(id)]
	return ok && a.Kind == KindEncryption && a.AEAD
}

var defaultAlgorithms = []Algorithm{
	{ID: "aes128", Label: "AES-128", Kind: KindEncryption},
	{ID: "aes192", Label: "AES-192", Kind: KindEncryption},
	{ID: "aes256", Label: "AES-256", Kind: KindEncryption},
	{ID: "aes128gcm16", Label: "AES-128-GCM", Kind: KindEncryption, AEAD: true},
	{ID: "aes256gcm16", Label: "AES-256-GCM", Kind: KindEncryption, AEAD: true},
	{ID: "chacha20poly1305", Label: "ChaCha20-Poly1305", Kind: KindEncryption, AEAD: true},
	{ID: "3des", Label: "3DES (Legacy)", Kind: KindEncryption},

	{ID: "md5", Label: "MD5 (Legacy)", Kind: KindIntegrity},
	{ID: "sha1", Label: "SHA-1 (Legacy)", Kind: KindIntegrity},
	{ID: "sha256", Label: "SHA-256", Kind: KindIntegrity},
	{ID: "sha384", Label: "SHA-384", Kind: KindIntegrity},
	{ID: "sha512", Label: "SHA-512", Kind: KindIntegrity},

	{ID: "modp1024", Label: "MODP 1024-bit (Legacy)", Kind: KindDHGroup},
	{ID: "modp2048", Label: "MODP 2048-bit", Kind: KindDHGroup},
	{ID: "modp3072", Label: "MODP 3072-bit", Kind: KindDHGroup},
	{ID: "modp4096", Label: "MODP 4096-bit", Kind: KindDHGroup},
	{ID: "modp8192", Label: "MODP 8192-bit", Kind: KindDHGroup},
	{ID: "ecp256", Label: "ECP 256-bit", Kind: KindDHGroup},
	{ID: "ecp384", Label: "ECP 384-bit", Kind: KindDHGroup},
	{ID: "ecp521", Label: "ECP 521-bit", Kind: KindDHGroup},
	{ID: "curve25519", Label: "Curve25519", Kind: KindDHGroup},
}

var defaultVocab = NewVocabulary(defaultAlgorithms)

// DefaultVocabulary returns the baked-in vocabulary. It is a superset of
// what current backends advertise, so decoding works before (or without)
// a /crypto-options fetch.
func DefaultVocabulary() *Vocabulary {
	return defaultVocab
}
