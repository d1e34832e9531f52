package user

import (
	"regexp"
	"sort"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	usernameTag   = "username"
	usernameText  = "only lowercase letters, digits, dots, dashes, underscores and @ are allowed"
	usernameRegex = regexp.MustCompile(`^[a-z0-9._@-]+$`)
)

// InitValidators registers the user validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)

	_ = validate.RegisterValidation(usernameTag, usernameValidation)
	core.RegisterCustomTranslation(validate, translator, usernameTag, usernameText)
}

// Custom Validators

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	known := append([]string(nil), AllRoles...)
	sort.Strings(known)
	for _, role := range roles {
		idx := sort.SearchStrings(known, role)
		if idx >= len(known) || known[idx] != role {
			return false
		}
	}
	return true
}

func usernameValidation(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}
