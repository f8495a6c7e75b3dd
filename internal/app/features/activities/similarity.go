package activities

import (
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// similarThreshold is the number of shared characters above which two
// names are reported as similar.
const similarThreshold = 6

type nameCheck struct {
	Duplicate bool
	Similar   []string
}

// checkName compares name against existing activity names, ignoring the
// activity identified by self. A case-insensitive exact match is a
// duplicate. Otherwise a name is similar when more than six of name's
// characters (repeats counted) occur somewhere in the existing name.
func checkName(name string, existing []models.Activity, self primitive.ObjectID) nameCheck {
	var out nameCheck
	cand := strings.ToLower(name)
	for _, a := range existing {
		if !self.IsZero() && a.ID == self {
			continue
		}
		other := strings.ToLower(a.Name)
		if other == cand {
			out.Duplicate = true
			return out
		}
		if sharedChars(cand, other) > similarThreshold {
			out.Similar = append(out.Similar, a.Name)
		}
	}
	return out
}

func sharedChars(cand, other string) int {
	n := 0
	for _, r := range cand {
		if strings.ContainsRune(other, r) {
			n++
		}
	}
	return n
}
