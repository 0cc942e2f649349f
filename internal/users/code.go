package users

import (
	"math/rand"
	"strconv"
)

// CodeProvider issues one-time verification codes for provisioned users.
type CodeProvider interface {
	NewCode() string
}

type randomCodeProvider struct{}

// NewRandomCodeProvider constructs a CodeProvider drawing uniformly from
// [100000, 999999], so the rendered code is always exactly six digits.
func NewRandomCodeProvider() CodeProvider {
	return &randomCodeProvider{}
}

func (p *randomCodeProvider) NewCode() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}
