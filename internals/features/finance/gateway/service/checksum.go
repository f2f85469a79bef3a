// file: internals/features/finance/gateway/service/checksum.go
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// CanonicalJSON: dipakai untuk payload yang KITA buat (initiate).
// Urutan field mengikuti deklarasi struct, key map diurutkan.
func CanonicalJSON(payload any) ([]byte, error) {
	b, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal gateway payload")
	}
	return b, nil
}

// SignRaw → lower-hex HMAC-SHA256 atas byte payload apa adanya.
func SignRaw(secret, raw []byte) string {
	m := hmac.New(sha256.New, secret)
	_, _ = m.Write(raw)
	return hex.EncodeToString(m.Sum(nil))
}

// Sign → SignRaw(CanonicalJSON(payload)).
func Sign(secret []byte, payload any) (string, error) {
	b, err := CanonicalJSON(payload)
	if err != nil {
		return "", err
	}
	return SignRaw(secret, b), nil
}

// VerifyRaw fail-closed: secret kosong, checksum kosong, atau payload kosong → false.
// Callback gateway WAJIB diverifikasi di sini, atas byte yang diterima (jangan decode lalu encode ulang).
func VerifyRaw(secret, raw []byte, checksum string) bool {
	checksum = strings.ToLower(strings.TrimSpace(checksum))
	if len(secret) == 0 || checksum == "" || len(raw) == 0 {
		return false
	}
	return hmac.Equal([]byte(SignRaw(secret, raw)), []byte(checksum))
}

// Verify: VerifyRaw atas CanonicalJSON(payload).
func Verify(secret []byte, payload any, checksum string) bool {
	b, err := CanonicalJSON(payload)
	if err != nil {
		return false
	}
	return VerifyRaw(secret, b, checksum)
}
