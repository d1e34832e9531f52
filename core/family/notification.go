package family

import (
	"strconv"

	ut "github.com/go-playground/universal-translator"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

// Notification is the outcome of one family of an import.
type Notification struct {
	Index      int           `json:"index"` // 1-based position in the payload
	FamilyName string        `json:"family_name"`
	Status     core.Status   `json:"status"`
	Messages   core.Messages `json:"messages"`
}

func newNotification(index int, name string, msgs core.Messages) Notification {
	return Notification{
		Index:      index,
		FamilyName: name,
		Status:     msgs.Status(),
		Messages:   msgs,
	}
}

// familyName is the surname of the first parent or, without parents, of the first student.
func familyName(parents, students []resolution, index int, translator ut.Translator) string {
	switch {
	case len(parents) > 0 && parents[0].user.LastName != "":
		return parents[0].user.LastName
	case len(students) > 0 && students[0].user.LastName != "":
		return students[0].user.LastName
	default:
		return core.T(translator, core.MsgFamilyNumber, strconv.Itoa(index))
	}
}
