// Package crypto implements server-side password hashing and verification.
package crypto

import "golang.org/x/crypto/bcrypt"

// bcrypt cost tuned so one hash takes on the order of 100ms on current
// commodity hardware.
const hashCost = 12

// dummyHash is a syntactically valid bcrypt hash compared against on the
// unknown-username path so lookup misses cost the same as a wrong password.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// HashPassword returns the bcrypt hash of password with a fresh random salt.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// A malformed hash counts as a mismatch, never an error.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyCompare burns one bcrypt verification against a fixed hash. Called
// when the username does not exist to close the timing side channel.
func DummyCompare() {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte("secwatch"))
}
