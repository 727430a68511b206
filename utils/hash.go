package utils

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var bcryptCost = bcrypt.DefaultCost + 2

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// StrongPassword reports which rules password breaks: at least 8 runes, an
// upper and a lower case letter, a digit and a symbol. Empty means it passes.
func StrongPassword(password string) []string {
	var upper, lower, digit, special bool
	n := 0
	for _, r := range password {
		n++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	var broken []string
	if n < 8 {
		broken = append(broken, "at least 8 characters")
	}
	if !upper {
		broken = append(broken, "an uppercase letter")
	}
	if !lower {
		broken = append(broken, "a lowercase letter")
	}
	if !digit {
		broken = append(broken, "a number")
	}
	if !special {
		broken = append(broken, "a special character")
	}
	return broken
}
