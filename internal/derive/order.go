package derive

import (
	"cmp"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tgienger/plan/internal/models"
)

// collator orders titles the way a reader expects rather than by byte
// value. A Collator keeps internal buffers, so each derivation makes its own.
type collator struct {
	c *collate.Collator
}

func newCollator() collator {
	return collator{c: collate.New(language.Und)}
}

func (c collator) titles(a, b string) int {
	return c.c.CompareString(a, b)
}

// byTitle orders by collated title, then id
func (c collator) byTitle(a, b models.Item) int {
	if n := c.titles(a.Title, b.Title); n != 0 {
		return n
	}
	return strings.Compare(a.ID, b.ID)
}

// compareDue orders ISO due dates ascending with an empty date last
func compareDue(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return cmp.Compare(a, b)
}

// byDue orders by due date, then collated title, then id
func (c collator) byDue(a, b models.Item) int {
	if n := compareDue(a.DueDate, b.DueDate); n != 0 {
		return n
	}
	return c.byTitle(a, b)
}

// byDueThenPriority is the calendar day order
func (c collator) byDueThenPriority(a, b models.Item) int {
	if n := compareDue(a.DueDate, b.DueDate); n != 0 {
		return n
	}
	if n := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); n != 0 {
		return n
	}
	return c.byTitle(a, b)
}
