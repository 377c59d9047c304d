package qr

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Role-dependent prefixes of issued QR strings
const (
	PrefixStudent = "TUPM"
	PrefixStaff   = "TUPS"
	PrefixVisitor = "TUPV"
)

// Generate issues a new opaque QR string for a user of the given role.
// The format is PREFIX-NN-NNNN with random digit groups.
func Generate(role string) (string, error) {
	prefix := PrefixVisitor
	switch role {
	case "Student":
		prefix = PrefixStudent
	case "Staff":
		prefix = PrefixStaff
	}

	group1, err := randomInt(100)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR string: %w", err)
	}
	group2, err := randomInt(10000)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR string: %w", err)
	}

	return fmt.Sprintf("%s-%02d-%04d", prefix, group1, group2), nil
}

func randomInt(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
