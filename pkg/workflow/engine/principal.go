/*
Copyright 2025 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package engine

import (
	"encoding/hex"
	"fmt"
)

// Principal is an opaque 20-byte identity used for authorization and
// per-responder deduplication, the same shape as an address-like account
// identifier.
type Principal [20]byte

// ZeroPrincipal is the unset/sentinel principal.
var ZeroPrincipal = Principal{}

func (p Principal) String() string {
	return hex.EncodeToString(p[:])
}

func (p Principal) IsZero() bool {
	return p == ZeroPrincipal
}

// MarshalText implements encoding.TextMarshaler so a Principal can be used
// as a JSON object key (PrincipalSet) or a plain JSON string field.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePrincipal decodes a 40-character hex string into a Principal.
func ParsePrincipal(s string) (Principal, error) {
	var p Principal
	b, err := hex.DecodeString(s)
	if err != nil {
		return p, fmt.Errorf("parse principal %q: %w", s, err)
	}
	if len(b) != len(p) {
		return p, fmt.Errorf("parse principal %q: expected %d bytes, got %d", s, len(p), len(b))
	}
	copy(p[:], b)
	return p, nil
}

// PrincipalSet is a small set of principals, used for authorized-trigger
// and authorized-creator membership checks.
type PrincipalSet map[Principal]struct{}

func NewPrincipalSet(principals ...Principal) PrincipalSet {
	s := make(PrincipalSet, len(principals))
	for _, p := range principals {
		s[p] = struct{}{}
	}
	return s
}

func (s PrincipalSet) Contains(p Principal) bool {
	_, ok := s[p]
	return ok
}

func (s PrincipalSet) Add(p Principal) {
	s[p] = struct{}{}
}
