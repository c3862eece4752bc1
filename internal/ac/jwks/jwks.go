// Package jwks renders AC's own signing keys as the RFC 7517 document GC
// and MC poll via internal/common/jwksclient.
package jwks

import (
	"context"
	"encoding/base64"

	"github.com/meetmesh/control-plane/internal/ac/keystore"
)

type Jwk struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	X   string `json:"x"`
}

type Document struct {
	Keys []Jwk `json:"keys"`
}

// Build renders every publishable (active + rotating) key as a JWK. A key
// whose public PEM fails to parse is skipped rather than failing the whole
// document — a single corrupt row should not take down token verification
// for every other service.
func Build(ctx context.Context, store *keystore.Store) (*Document, error) {
	keys, err := store.PublishableKeys(ctx)
	if err != nil {
		return nil, err
	}

	doc := &Document{Keys: make([]Jwk, 0, len(keys))}
	for _, k := range keys {
		pub, err := store.PublicKey(&k)
		if err != nil {
			continue
		}
		doc.Keys = append(doc.Keys, Jwk{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: k.KeyID,
			Alg: "EdDSA",
			X:   base64.RawURLEncoding.EncodeToString(pub),
		})
	}
	return doc, nil
}
