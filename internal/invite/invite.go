package invite

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/logger"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/metrics"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/model"
)

const (
	// Prefix starts every invite code.
	Prefix = "SURF-"

	// Alphabet leaves out I, O, 0 and 1, which are easily confused when read aloud or printed.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// Length is the number of random characters after the prefix.
	Length = 6

	// MaxAttempts bounds the uniqueness checks for one assignment.
	MaxAttempts = 10
)

// Rand is the source of randomness. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

// Generator produces invite code candidates.
type Generator struct {
	rand Rand
}

// NewGenerator returns a generator drawing from r, or from the global source when r is nil.
func NewGenerator(r Rand) *Generator {
	if r == nil {
		r = defaultRand{}
	}
	return &Generator{rand: r}
}

// Generate returns one candidate of the form SURF-XXXXXX.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(len(Prefix) + Length)
	b.WriteString(Prefix)
	for range Length {
		b.WriteByte(Alphabet[g.rand.IntN(len(Alphabet))])
	}
	return b.String()
}

// Valid reports whether code has the invite code format.
func Valid(code string) bool {
	rest, ok := strings.CutPrefix(code, Prefix)
	if !ok || len(rest) != Length {
		return false
	}
	for i := range len(rest) {
		if strings.IndexByte(Alphabet, rest[i]) < 0 {
			return false
		}
	}
	return true
}

// CodeStore is the part of the store the assigner works with.
type CodeStore interface {
	InviteCodeTaken(ctx context.Context, code string) (bool, error)
	AssignInviteCode(ctx context.Context, id int64, code string) (string, error)
}

// Assigner hands out invite codes to contacts, once per contact.
type Assigner struct {
	store     CodeStore
	generator *Generator
	logg      *logger.Logger
	metrics   *metrics.Metrics
}

func NewAssigner(codeStore CodeStore, generator *Generator, logg *logger.Logger, m *metrics.Metrics) *Assigner {
	if generator == nil {
		generator = NewGenerator(nil)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Assigner{store: codeStore, generator: generator, logg: logg, metrics: m}
}

// Ensure returns the invite code of the contact, assigning a new one if it has none yet.
// The contact is updated in place.
func (a *Assigner) Ensure(ctx context.Context, contact *model.Contact) (string, error) {
	if contact.InviteCode != nil {
		return *contact.InviteCode, nil
	}

	candidate, err := a.pickCandidate(ctx)
	if err != nil {
		return "", err
	}
	code, err := a.store.AssignInviteCode(ctx, contact.Id, candidate)
	if err != nil {
		return "", err
	}
	contact.InviteCode = &code

	a.logg.Info(a.logg.WithFields(ctx, map[string]any{
		"contact_id":  contact.Id,
		"invite_code": code,
	}), "invite code assigned")
	return code, nil
}

// pickCandidate looks for a code nobody holds. After MaxAttempts taken candidates the last one
// is used anyway.
func (a *Assigner) pickCandidate(ctx context.Context) (string, error) {
	candidate := a.generator.Generate()
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		taken, err := a.store.InviteCodeTaken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check invite code: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		a.metrics.IncInviteCollision()
		candidate = a.generator.Generate()
	}
	a.logg.Warn(a.logg.WithField(ctx, "invite_code", candidate),
		"no free invite code found, using the last candidate", nil)
	return candidate, nil
}
