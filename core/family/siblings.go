package family

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

// similarityThreshold is the difflib ratio above which two student names are reported as a possible duplicate.
const similarityThreshold = 0.85

// siblingCache holds the students already linked to the family's parents, keyed by account ID.
type siblingCache struct {
	byID  map[int64]user.User
	order []int64
}

func newSiblingCache() *siblingCache {
	return &siblingCache{byID: make(map[int64]user.User)}
}

func (c *siblingCache) add(students ...user.User) {
	for _, s := range students {
		if _, ok := c.byID[s.ID]; ok {
			continue
		}
		c.byID[s.ID] = s
		c.order = append(c.order, s.ID)
	}
}

func (c *siblingCache) len() int {
	return len(c.order)
}

// match returns the first cached student whose first and last names equal the given ones, ignoring case.
func (c *siblingCache) match(firstName, lastName string) (user.User, bool) {
	for _, id := range c.order {
		s := c.byID[id]
		if strings.EqualFold(s.FirstName, firstName) && strings.EqualFold(s.LastName, lastName) {
			return s, true
		}
	}
	return user.User{}, false
}

// similar returns the cached students whose full name is close to, but not exactly, the given one.
func (c *siblingCache) similar(firstName, lastName string) []user.User {
	name := strings.ToLower(strings.TrimSpace(firstName + " " + lastName))
	matches := make([]user.User, 0)
	for _, id := range c.order {
		s := c.byID[id]
		other := strings.ToLower(s.FullName())
		if other == name {
			continue
		}
		if nameRatio(name, other) >= similarityThreshold {
			matches = append(matches, s)
		}
	}
	return matches
}

func nameRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}
