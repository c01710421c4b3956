package invoice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"makemybill/m/domain"
	"makemybill/m/internal/store"
)

const counterWidth = 6

// Sequencer derives invoice numbers of the form PREFIX-000001.
type Sequencer struct {
	prefix string
}

func NewSequencer(prefix string) *Sequencer {
	if prefix == "" {
		prefix = "INV"
	}
	return &Sequencer{prefix: prefix}
}

// First is the number allocated when no sale exists.
func (s *Sequencer) First() string {
	return s.Format(1)
}

// Next returns the number following last. An empty last yields First.
func (s *Sequencer) Next(last string) (string, error) {
	if last == "" {
		return s.First(), nil
	}
	n, err := s.parse(last)
	if err != nil {
		return "", err
	}
	return s.Format(n + 1), nil
}

// Allocate reads the most recent sale through tx and returns the number
// after it. If an older sale holds a larger well-formed number, as happens
// when the clock steps back, numbering continues after that one instead.
// Uniqueness is enforced by the store when the sale is inserted.
func (s *Sequencer) Allocate(ctx context.Context, tx *sqlx.Tx) (string, error) {
	last, err := store.LatestInvoiceNumber(ctx, tx)
	if err != nil {
		return "", err
	}
	var n uint64
	if last != "" {
		if n, err = s.parse(last); err != nil {
			return "", err
		}
	}

	highest, err := store.HighestInvoiceNumber(ctx, tx, s.prefix)
	if err != nil {
		return "", err
	}
	if h, err := s.parse(highest); err == nil && h > n {
		n = h
	}
	return s.Format(n + 1), nil
}

func (s *Sequencer) parse(number string) (uint64, error) {
	suffix, ok := strings.CutPrefix(number, s.prefix+"-")
	if !ok || len(suffix) < counterWidth {
		return 0, fmt.Errorf("%w: %q", domain.ErrCorruptSequenceState, number)
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", domain.ErrCorruptSequenceState, number)
		}
	}
	n, err := strconv.ParseUint(suffix, 10, 63)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrCorruptSequenceState, number)
	}
	return n, nil
}

// Format renders the nth invoice number.
func (s *Sequencer) Format(n uint64) string {
	return fmt.Sprintf("%s-%0*d", s.prefix, counterWidth, n)
}
