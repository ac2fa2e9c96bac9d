package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed identifier such as "doc-1f2e3d4c5b6a". The short
// hex keeps ids readable in logs and URLs while staying unique enough for
// row keys.
func New(prefix string) string {
	raw := uuid.New()
	return fmt.Sprintf("%s-%x", prefix, raw[:6])
}
