package auth

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// dummyHash is a valid bcrypt hash used to equalize signin timing when the
// email is unknown. It never matches a real password check.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword applies a salted adaptive one-way hash to the plaintext.
// A failure here is fatal to the calling operation.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies plaintext against a stored hash using bcrypt's own
// constant-time comparison.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// DummyCompare burns one bcrypt verification so a signin against an unknown
// email costs the same as one against a wrong password.
func DummyCompare(plaintext string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plaintext))
}
