package security

import (
	"NaijaAuto/internal/core/ports"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// fieldCipher encrypts single column values with AES-GCM. The nonce is
// prepended to each ciphertext.
type fieldCipher struct {
	gcm cipher.AEAD
	log zerolog.Logger
}

var _ ports.FieldCipher = (*fieldCipher)(nil)

// NewFieldCipher accepts a 16 or 32 byte key.
func NewFieldCipher(key []byte, baseLogger *zerolog.Logger) (ports.FieldCipher, error) {
	if len(key) != 16 && len(key) != 32 {
		return nil, errors.New("encryption key must be 16 or 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("could not create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	log := baseLogger.With().Str("component", "field_cipher").Logger()
	log.Info().Msg("Field cipher initialized")
	return &fieldCipher{gcm: gcm, log: log}, nil
}

// NewFieldCipherFromHex decodes a hex key as stored in ENCRYPTION_KEY.
func NewFieldCipherFromHex(hexKey string, baseLogger *zerolog.Logger) (ports.FieldCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	return NewFieldCipher(key, baseLogger)
}

func (c *fieldCipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		c.log.Error().Err(err).Msg("Failed to generate nonce")
		return nil, fmt.Errorf("could not generate nonce: %w", err)
	}
	return c.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *fieldCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := c.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext is too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to decrypt field (tampered or wrong key?)")
		return nil, fmt.Errorf("could not decrypt: %w", err)
	}
	return plaintext, nil
}

func (c *fieldCipher) EncryptString(plaintext string) (string, error) {
	sealed, err := c.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *fieldCipher) DecryptString(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not base64: %w", err)
	}
	plaintext, err := c.Decrypt(sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
