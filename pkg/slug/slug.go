package slug

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	gosimpleslug "github.com/gosimple/slug"
)

const (
	fallbackSlug = "counter"
	maxLength    = 255
	suffixLength = 8
	maxAttempts  = 10
)

// ErrExhausted no unique slug was found within the attempt budget
var ErrExhausted = fmt.Errorf("could not generate a unique slug")

// ExistsFunc reports whether a slug is already taken
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Make slugifies a name; non-Latin scripts are transliterated
func Make(name string) string {
	s := gosimpleslug.Make(name)
	if s == "" {
		return fallbackSlug
	}
	return truncate(s, maxLength)
}

// Unique returns Make(name) or, if taken, Make(name) with an 8-hex random suffix
func Unique(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Make(name)

	taken, err := exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	prefix := truncate(base, maxLength-suffixLength-1)
	for i := 0; i < maxAttempts; i++ {
		candidate := prefix + "-" + randomSuffix()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:suffixLength]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-")
}
