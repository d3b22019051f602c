package source

import (
	"context"
	"fmt"
	"strings"

	"vtable"
)

var (
	firstNames = []string{"Emily", "Michael", "Sophia", "James", "Emma", "Olivia", "Alexander", "Ava", "Ethan", "Isabella"}
	lastNames  = []string{"Johnson", "Williams", "Brown", "Davis", "Miller", "Wilson", "Moore", "Taylor", "Anderson", "Thomas"}
	cities     = []string{"Phoenix", "Houston", "Denver", "Seattle", "Austin", "Boston", "Chicago", "Portland"}
	genders    = []string{"female", "male"}
)

// SyntheticSource generates a deterministic users collection of any size.
// Row i always has ID i+1 and the same fields.
type SyntheticSource struct {
	n int
}

// NewSyntheticSource returns a generator of n rows.
func NewSyntheticSource(n int) *SyntheticSource {
	return &SyntheticSource{n: max(n, 0)}
}

func (s *SyntheticSource) Name() string { return fmt.Sprintf("synthetic(%d)", s.n) }

func (s *SyntheticSource) Load(ctx context.Context) ([]vtable.Row, error) {
	rows := make([]vtable.Row, s.n)
	for i := range rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rows[i] = SyntheticRow(i)
	}
	return rows, nil
}

// SyntheticRow builds row i of the generated collection.
func SyntheticRow(i int) vtable.Row {
	id := i + 1
	first := firstNames[i%len(firstNames)]
	last := lastNames[(i/len(firstNames))%len(lastNames)]
	return vtable.Row{
		ID: id,
		Fields: map[string]any{
			"id":        id,
			"firstName": first,
			"lastName":  last,
			"email":     fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), id),
			"age":       18 + (i*7)%60,
			"gender":    genders[i%len(genders)],
			"phone":     fmt.Sprintf("+1 555-%03d-%04d", (i/10000)%1000, i%10000),
			"address": map[string]any{
				"city": cities[i%len(cities)],
			},
		},
	}
}
