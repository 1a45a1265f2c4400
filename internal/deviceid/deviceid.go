// Package deviceid generates the anonymous identifiers used for leaderboard
// submissions.
package deviceid

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Length is the number of hex characters in a device id.
const Length = 32

// Generator produces device ids. The random component is injectable for
// deterministic tests.
type Generator struct {
	newUUID func() uuid.UUID
}

// NewGenerator creates a generator; a nil newUUID uses uuid.New.
func NewGenerator(newUUID func() uuid.UUID) *Generator {
	if newUUID == nil {
		newUUID = uuid.New
	}
	return &Generator{newUUID: newUUID}
}

// New returns a fresh device id for this machine.
func New() string {
	return NewGenerator(nil).Generate()
}

// Generate hashes stable host properties together with a random component,
// so two machines with identical hardware still get different ids.
func (g *Generator) Generate() string {
	host, _ := os.Hostname()
	return Fingerprint(
		host,
		runtime.GOOS+"/"+runtime.GOARCH,
		strconv.Itoa(runtime.NumCPU()),
		os.Getenv("LANG"),
		g.newUUID().String()[:8],
	)
}

// Fingerprint returns the first 32 hex characters of the SHA-256 of the
// components joined with "|".
func Fingerprint(components ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])[:Length]
}

// Valid reports whether id looks like a device id.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil && strings.ToLower(id) == id
}
