package agreement

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

var endDateAfterStartTag = core.MsgEndDateAfterStart

// InitValidators registers the agreement validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(editAgreementValidation, EditAgreement{})
	core.RegisterCustomTranslation(validate, translator, endDateAfterStartTag, core.T(translator, core.MsgEndDateAfterStart), true)
}

// editAgreementValidation requires the start date to precede the end date.
func editAgreementValidation(sl validator.StructLevel) {
	ea := sl.Current().Interface().(EditAgreement)
	if ea.StartDate.IsZero() || ea.EndDate.IsZero() {
		return
	}
	if !ea.StartDate.Before(ea.EndDate) {
		sl.ReportError(ea.EndDate, "enddate", "EndDate", endDateAfterStartTag, "")
	}
}
