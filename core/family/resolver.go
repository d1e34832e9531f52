package family

import (
	"context"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

var emailLocalStripRegex = regexp.MustCompile(`[^a-z0-9]`)

// resolution is the account an individual of the payload was bound to.
type resolution struct {
	user     user.User
	created  bool
	password string // only set for created accounts
}

// resolver finds or creates the account of one individual of a family.
type resolver struct {
	users          user.Service
	validate       *validator.Validate
	translator     ut.Translator
	passwordLength int
	lang           string
}

// clean trims names and phone, lowers the email and drops it when it is not a valid address.
func (r *resolver) clean(p PersonData) PersonData {
	p.Name.FirstName = core.CleanString(p.Name.FirstName)
	p.Name.MiddleName = core.CleanString(p.Name.MiddleName)
	p.Name.LastName = core.CleanString(p.Name.LastName)
	p.Phone = core.CleanString(p.Phone)
	p.Email = core.CleanString(p.Email, true /* lower */)
	if p.Email != "" && r.validate.Var(p.Email, "email") != nil {
		p.Email = ""
	}
	return p
}

func displayName(p PersonData) string {
	if name := strings.TrimSpace(p.Name.FirstName + " " + p.Name.LastName); name != "" {
		return name
	}
	return p.Email
}

// resolve binds `p` to an existing account (by email, then by sibling name when `siblings` is given)
// or creates a new one. It returns false when the individual must be skipped.
func (r *resolver) resolve(ctx context.Context, p PersonData, siblings *siblingCache, msgs *core.Messages) (resolution, bool) {
	name := displayName(p)
	if p.Name.FirstName == "" || p.Name.LastName == "" {
		msgs.Error(core.T(r.translator, core.MsgUserNotAddedToFamily, name))
		msgs.Error(core.T(r.translator, core.MsgMissingName))
		return resolution{}, false
	}

	if p.Email != "" {
		usr, err := r.users.GetByEmail(ctx, p.Email)
		switch {
		case err == nil:
			msgs.Warning(core.T(r.translator, core.MsgAccountExists, usr.FullName(), usr.Email))
			return resolution{user: usr}, true
		case errors.Cause(err) != user.ErrNotFound:
			msgs.Error(core.T(r.translator, core.MsgUserNotAddedToFamily, name))
			msgs.Error(core.T(r.translator, core.MsgErrorLookingUpUser, name, err.Error()))
			return resolution{}, false
		}
	}

	if siblings != nil {
		if sibling, ok := siblings.match(p.Name.FirstName, p.Name.LastName); ok {
			msgs.Warning(core.T(r.translator, core.MsgAccountExists, sibling.FullName(), sibling.Email))
			return resolution{user: sibling}, true
		}
		for _, s := range siblings.similar(p.Name.FirstName, p.Name.LastName) {
			msgs.Warning(core.T(r.translator, core.MsgPossibleDuplicate, name, s.FullName()))
		}
	}

	return r.create(ctx, p, msgs)
}

func (r *resolver) create(ctx context.Context, p PersonData, msgs *core.Messages) (resolution, bool) {
	name := displayName(p)
	fail := func(err error) (resolution, bool) {
		msgs.Error(core.T(r.translator, core.MsgUserNotAddedToFamily, name))
		msgs.Error(core.T(r.translator, core.MsgErrorCreatingUser, name, err.Error()))
		return resolution{}, false
	}

	pwd, err := user.GeneratePassword(r.passwordLength)
	if err != nil {
		return fail(err)
	}
	usr, err := r.users.Create(ctx, user.NewUser{
		FirstName:  p.Name.FirstName,
		MiddleName: p.Name.MiddleName,
		LastName:   p.Name.LastName,
		Email:      p.Email,
		Phone:      p.Phone,
		Lang:       r.lang,
		Password:   pwd,
	})
	if err != nil {
		return fail(err)
	}

	contact := usr.Email
	if contact == "" {
		contact = usr.Username
	}
	msgs.Success(core.T(r.translator, core.MsgAccountCreated, usr.FullName(), contact))
	return resolution{user: usr, created: true, password: pwd}, true
}

// studentEmail derives an email for a student from a parent's: "local+firstname@domain".
func studentEmail(parentEmail, firstName string) string {
	at := strings.LastIndex(parentEmail, "@")
	if at <= 0 || at == len(parentEmail)-1 {
		return ""
	}
	tag := emailLocalStripRegex.ReplaceAllString(strings.ToLower(firstName), "")
	if tag == "" {
		return ""
	}
	local := parentEmail[:at]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	return local + "+" + tag + parentEmail[at:]
}
