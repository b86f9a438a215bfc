// Package passphrase generates human-memorable site passwords of the
// form word-word-word-NNNN. These are the only passwords the system ever
// issues; user-chosen passwords are never accepted.
package passphrase

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/keithlinneman/sitegate/internal/xerrors"
)

// Generate returns a fresh passphrase: three words drawn independently
// and uniformly (with replacement) from the word list, joined by
// hyphens, plus a 4-digit number in [1000, 9999]. All randomness comes
// from crypto/rand.
func Generate() (string, error) {
	w1, err := randomWord()
	if err != nil {
		return "", err
	}
	w2, err := randomWord()
	if err != nil {
		return "", err
	}
	w3, err := randomWord()
	if err != nil {
		return "", err
	}
	n, err := randomInt(9000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s-%d", w1, w2, w3, 1000+n), nil
}

func randomWord() (string, error) {
	i, err := randomInt(int64(len(words)))
	if err != nil {
		return "", err
	}
	return words[i], nil
}

// randomInt returns a uniform value in [0, max) from crypto/rand.
func randomInt(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, xerrors.Wrap(err, "read random")
	}
	return n.Int64(), nil
}
