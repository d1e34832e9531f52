package user

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const (
	lowerChars   = "abcdefghijkmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars   = "23456789"
	specialChars = "*-.!#$"

	MinPasswordLength = 4
)

// GeneratePassword returns a random password of `length` characters holding at least
// one lowercase letter, one uppercase letter, one digit and one special character.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		length = MinPasswordLength
	}
	classes := []string{lowerChars, upperChars, digitChars, specialChars}
	all := lowerChars + upperChars + digitChars + specialChars

	pwd := make([]byte, length)
	for i := range pwd {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		c, err := randomIndex(len(set))
		if err != nil {
			return "", errors.Wrap(err, "generating password")
		}
		pwd[i] = set[c]
	}

	// shuffle so the guaranteed classes are not always first
	for i := len(pwd) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", errors.Wrap(err, "shuffling password")
		}
		pwd[i], pwd[j] = pwd[j], pwd[i]
	}
	return string(pwd), nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
