package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolportal/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)
}

// Custom Validators

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		if !IsRole(role) {
			return false
		}
	}
	return true
}

// ValidateToken cleans and validates a token request.
func ValidateToken(nt *NewToken, validate *validator.Validate, translator ut.Translator) error {
	nt.Clean()
	if err := validate.Struct(nt); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return nil
}
