package ports

// FieldCipher encrypts individual column values before they reach storage.
type FieldCipher interface {
	Encrypt(plaintext []byte) (ciphertext []byte, err error)
	Decrypt(ciphertext []byte) (plaintext []byte, err error)

	// EncryptString returns base64 text suitable for a TEXT column.
	EncryptString(plaintext string) (string, error)
	// DecryptString reverses EncryptString.
	DecryptString(encoded string) (string, error)
}
