package proposal

import "strings"

// Canonical defaults substituted whenever a selection or wire string is
// empty or unrecognized. Encode and decode both converge to these.
const (
	DefaultEncryption = "aes256"
	DefaultIntegrity  = "sha256"
	DefaultDHGroup    = "modp2048"
)

// Pair is one encryption/integrity row of the selection form.
type Pair struct {
	Encryption string `json:"encryption"`
	Integrity  string `json:"integrity"`
}

// Selection is the structured, editable form of a proposal string.
type Selection struct {
	// Pairs holds each segment's own enc/integ pair in first-seen order,
	// deduplicated, for form re-population.
	Pairs []Pair
	// DHGroups is the union of DH/ECP tokens across all segments.
	DHGroups []string

	// Flattened views for legacy single-select consumers.
	Encryptions []string
	Integrities []string
}

// DefaultSelection returns the canonical single-pair default selection.
func DefaultSelection() Selection {
	return Selection{
		Pairs:       []Pair{{Encryption: DefaultEncryption, Integrity: DefaultIntegrity}},
		DHGroups:    []string{DefaultDHGroup},
		Encryptions: []string{DefaultEncryption},
		Integrities: []string{DefaultIntegrity},
	}
}

// Build encodes a single enc/integ/dh triple. Empty encryption and integrity
// fall back to the defaults; an empty dh omits the group token (no PFS).
// The integrity token is suppressed for AEAD ciphers regardless of what the
// caller passes: emitting one would misconfigure the peer.
func (v *Vocabulary) Build(enc, integ, dh string) string {
	return v.buildSegment(Pair{Encryption: enc, Integrity: integ}, dh)
}

// BuildIKE encodes Phase 1 proposals: one or more enc/integ pairs against a
// list of admissible DH groups. Empty inputs are defaulted so the result is
// never empty.
//
// The fan-out is deliberately asymmetric: the first pair is combined with
// every DH group, subsequent pairs only with the first group. The form
// exposes one shared DH selector and N independent cipher rows, so extra DH
// groups are only negotiated against the primary cipher.
func (v *Vocabulary) BuildIKE(pairs []Pair, dhGroups []string) string {
	if len(pairs) == 0 {
		pairs = []Pair{{Encryption: DefaultEncryption, Integrity: DefaultIntegrity}}
	}
	if len(dhGroups) == 0 {
		dhGroups = []string{DefaultDHGroup}
	}

	var segments []string
	for _, dh := range dhGroups {
		segments = append(segments, v.buildSegment(pairs[0], dh))
	}
	for _, p := range pairs[1:] {
		segments = append(segments, v.buildSegment(p, dhGroups[0]))
	}
	return strings.Join(segments, ",")
}

// BuildESP encodes Phase 2 proposals: one or more enc/integ pairs with an
// optional single PFS group. An empty pfs omits the group token entirely.
func (v *Vocabulary) BuildESP(pairs []Pair, pfs string) string {
	if len(pairs) == 0 {
		pairs = []Pair{{Encryption: DefaultEncryption, Integrity: DefaultIntegrity}}
	}
	var segments []string
	for _, p := range pairs {
		segments = append(segments, v.buildSegment(p, pfs))
	}
	return strings.Join(segments, ",")
}

func (v *Vocabulary) buildSegment(p Pair, dh string) string {
	enc := strings.TrimSpace(p.Encryption)
	if enc == "" {
		enc = DefaultEncryption
	}

	tokens := []string{enc}

	if !v.IsAEAD(enc) {
		integ := strings.TrimSpace(p.Integrity)
		if integ == "" {
			integ = DefaultIntegrity
		}
		tokens = append(tokens, integ)
	}

	if dh = strings.TrimSpace(dh); dh != "" {
		tokens = append(tokens, dh)
	}
	return strings.Join(tokens, "-")
}

// Parse decodes a proposal string into a structured selection. It never
// fails: unrecognized tokens are dropped one by one, and a string that
// yields nothing at all (absent, empty, fully unrecognized) decodes to the
// canonical defaults, so Parse(Build(x)) and Build(Parse(x)) converge.
func (v *Vocabulary) Parse(s string) Selection {
	var sel Selection

	seenPair := make(map[Pair]bool)
	seenDH := make(map[string]bool)
	seenEnc := make(map[string]bool)
	seenInteg := make(map[string]bool)

	for _, segment := range strings.Split(s, ",") {
		var enc, integ string
		for _, token := range strings.Split(segment, "-") {
			token = strings.ToLower(strings.TrimSpace(token))
			if token == "" {
				continue
			}
			switch v.Classify(token) {
			case KindEncryption:
				if enc == "" {
					enc = token
				}
			case KindIntegrity:
				if integ == "" {
					integ = token
				}
			case KindDHGroup:
				if !seenDH[token] {
					seenDH[token] = true
					sel.DHGroups = append(sel.DHGroups, token)
				}
			}
			// KindUnknown: dropped for forward compatibility with
			// daemon extensions the form does not render.
		}

		if enc == "" && integ == "" {
			continue
		}
		p := Pair{Encryption: enc, Integrity: integ}
		if !seenPair[p] {
			seenPair[p] = true
			sel.Pairs = append(sel.Pairs, p)
		}
		if enc != "" && !seenEnc[enc] {
			seenEnc[enc] = true
			sel.Encryptions = append(sel.Encryptions, enc)
		}
		if integ != "" && !seenInteg[integ] {
			seenInteg[integ] = true
			sel.Integrities = append(sel.Integrities, integ)
		}
	}

	if len(sel.Pairs) == 0 && len(sel.DHGroups) == 0 {
		return DefaultSelection()
	}
	return sel
}
