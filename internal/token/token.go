package token

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a portal handle token. Tokens may only hold ASCII letters,
// digits and underscores.
func New() string {
	return "xcap_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
