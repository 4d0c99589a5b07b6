package services

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SlugAlphabet keeps public slugs lowercase and URL-safe.
const SlugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// SlugGenerator produces candidate public slugs.
type SlugGenerator func() (string, error)

func NewSlugGenerator(length int) SlugGenerator {
	return func() (string, error) {
		return gonanoid.Generate(SlugAlphabet, length)
	}
}
