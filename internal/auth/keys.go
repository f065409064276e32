package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/go-resty/resty/v2"
)

// JWK is the JSON Web Key shape served by the IAM service. Only the RSA
// fields are represented since the platform signs tokens with RS512.
type JWK struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// PublicKey decodes the modulus and exponent into an rsa.PublicKey.
func (k JWK) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("error decoding key modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("error decoding key exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

// FetchPublicKey retrieves the token signing key from the IAM service. The
// first key of the served key set is the active signing key.
func FetchPublicKey(ctx context.Context, iamAPI string) (*rsa.PublicKey, error) {
	res, err := resty.New().SetBaseURL(iamAPI).R().SetContext(ctx).Get("/keys")
	if err != nil {
		return nil, fmt.Errorf("iam request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("iam returned status %d", res.StatusCode())
	}
	var keySet struct {
		Keys []JWK `json:"keys"`
	}
	if err := json.Unmarshal(res.Body(), &keySet); err != nil {
		return nil, fmt.Errorf("error parsing iam key set: %w", err)
	}
	if len(keySet.Keys) == 0 {
		return nil, errors.New("iam key set is empty")
	}
	return keySet.Keys[0].PublicKey()
}
