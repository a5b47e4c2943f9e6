package utils

import (
	"fmt"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// ToRoman renders n in roman numerals. Non-positive numbers render empty.
func ToRoman(n int) string {
	var b strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}

// AvatarKey builds the object key for a player's avatar, e.g.
// "avatars/<id>/ana-maria.png".
func AvatarKey(playerID, playerName, filename string) string {
	name := slug.Make(playerName)
	if name == "" {
		name = "avatar"
	}
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("avatars/%s/%s%s", playerID, name, ext)
}

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
