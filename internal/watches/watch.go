package watches

import (
	"fmt"
	"strings"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/risk"
)

// Watch is a saved keyword subscription. The monitor publishes an alert for
// every new notice it matches.
type Watch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Keywords  []string  `json:"keywords"`
	UF        string    `json:"uf,omitempty"`
	MinValue  float64   `json:"min_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize trims the fields, drops blank keywords and upper-cases the UF.
func (w *Watch) Normalize() {
	w.Name = strings.TrimSpace(w.Name)
	w.UF = strings.ToUpper(strings.TrimSpace(w.UF))

	kws := make([]string, 0, len(w.Keywords))
	for _, k := range w.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	w.Keywords = kws
}

func (w Watch) Validate() error {
	switch {
	case w.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidWatch)
	case len(w.Keywords) == 0:
		return fmt.Errorf("%w: at least one keyword is required", domain.ErrInvalidWatch)
	case w.UF != "" && len(w.UF) != 2:
		return fmt.Errorf("%w: uf must have two letters", domain.ErrInvalidWatch)
	case w.MinValue < 0:
		return fmt.Errorf("%w: min_value must not be negative", domain.ErrInvalidWatch)
	}
	return nil
}

// Matches reports whether any keyword appears in the notice title or
// description, ignoring case and accents. UF and MinValue filter further
// when set.
func (w Watch) Matches(n domain.Notice) bool {
	if w.UF != "" && !strings.EqualFold(w.UF, n.UF) {
		return false
	}
	if w.MinValue > 0 && n.Value < w.MinValue {
		return false
	}

	text := risk.Fold(n.Title + " " + n.Description)
	for _, k := range w.Keywords {
		if k = risk.Fold(strings.TrimSpace(k)); k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
