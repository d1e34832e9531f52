package core

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
)

// Message keys of the localized strings shown to admins.
const (
	MsgAccountCreated          = "accountcreatedsuccessfully"
	MsgAccountExists           = "accountalreadyexists"
	MsgUserNotAddedToFamily    = "usernotaddedtofamily"
	MsgErrorCreatingUser       = "errorcreatinguser"
	MsgErrorLookingUpUser      = "errorlookingupuser"
	MsgMissingName             = "missingname"
	MsgNoCoursesFound          = "nocoursesfoundforuser"
	MsgCourseNotFound          = "coursenotfound"
	MsgUserEnrolled            = "userenrolledincourse"
	MsgUserAlreadyEnrolled     = "useralreadyenrolled"
	MsgErrorEnrollingUser      = "errorenrollinguser"
	MsgParentAssigned          = "parentassigned"
	MsgParentAlreadyAssigned   = "parentalreadyassigned"
	MsgErrorAssigningParent    = "errorassigningparent"
	MsgErrorLoadingStudents    = "errorloadingstudents"
	MsgPossibleDuplicate       = "possibleduplicatestudent"
	MsgFamilyHasNoUsers        = "familyhasnousers"
	MsgFamilyNumber            = "familynumber"
	MsgUnexpectedError         = "unexpectederror"
	MsgContactUsForPickup      = "contactusforpickup"
	MsgApartment               = "apt"
	MsgEndDateAfterStart       = "enddateafterstart"
	MsgVCCSubmissionDeleted    = "vccsubmissiondeleted"
	MsgNewAccountSubject       = "newaccountsubject"
	MsgRoleStudent             = "rolestudent"
	MsgRoleParent              = "roleparent"
	MsgUnknownLiaison          = "unknownliaison"
	MsgUnknownCourse           = "unknowncourse"
	MsgInvalidOrdering         = "invalidordering"
	MsgPartnershipsRequired    = "partnershipsrequired"
	MsgImportPayloadNotAnArray = "importpayloadnotanarray"
	MsgImportPayloadInvalid    = "importpayloadinvalid"
	MsgBulkUploadResults       = "bulkfamilyuploadresults"
)

var catalog = map[string]string{
	MsgAccountCreated:          "Account created for {0} ({1}).",
	MsgAccountExists:           "An account for {0} ({1}) already exists.",
	MsgUserNotAddedToFamily:    "{0} was not added to the family.",
	MsgErrorCreatingUser:       "There was an error creating the account for {0}: {1}",
	MsgErrorLookingUpUser:      "There was an error looking up the account of {0}: {1}",
	MsgMissingName:             "A first name and a last name are required.",
	MsgNoCoursesFound:          "No courses were found for {0}.",
	MsgCourseNotFound:          "Course {0} does not exist, so {1} was not enrolled in it.",
	MsgUserEnrolled:            "{0} enrolled in {1} as {2}.",
	MsgUserAlreadyEnrolled:     "{0} is already enrolled in {1} as {2}.",
	MsgErrorEnrollingUser:      "There was an error enrolling {0} in {1}: {2}",
	MsgParentAssigned:          "{0} assigned as parent of {1}.",
	MsgParentAlreadyAssigned:   "{0} is already assigned as parent of {1}.",
	MsgErrorAssigningParent:    "There was an error assigning {0} as parent of {1}: {2}",
	MsgErrorLoadingStudents:    "There was an error loading the students of {0}: {1}",
	MsgPossibleDuplicate:       "{0} looks similar to the existing student {1}; check for a duplicate account.",
	MsgFamilyHasNoUsers:        "The family has no parents or students.",
	MsgFamilyNumber:            "Family #{0}",
	MsgUnexpectedError:         "Unexpected error: {0}",
	MsgContactUsForPickup:      "Contact us for pickup",
	MsgApartment:               "Apt",
	MsgEndDateAfterStart:       "end date must be after start date",
	MsgVCCSubmissionDeleted:    "VCC submission deleted.",
	MsgNewAccountSubject:       "Your new account",
	MsgRoleStudent:             "student",
	MsgRoleParent:              "parent",
	MsgUnknownLiaison:          "user {0} does not exist",
	MsgUnknownCourse:           "course {0} does not exist",
	MsgInvalidOrdering:         "cannot order by {0}",
	MsgPartnershipsRequired:    "at least one partnership is required",
	MsgImportPayloadNotAnArray: "the import payload must be a JSON array of families",
	MsgImportPayloadInvalid:    "the import payload is not valid JSON: {0}",
	MsgBulkUploadResults:       "Bulk family upload results",
}

// NewTranslator returns the English translator shared by the validator and the message catalog.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	RegisterStrings(translator)
	return translator
}

// RegisterStrings adds the message catalog to `translator`.
func RegisterStrings(translator ut.Translator) {
	for key, text := range catalog {
		_ = translator.Add(key, text, true)
	}
}

// T translates `key` with positional params, falling back to the key itself.
func T(translator ut.Translator, key string, params ...string) string {
	if translator == nil {
		return key
	}
	s, err := translator.T(key, params...)
	if err != nil {
		return key
	}
	return s
}
