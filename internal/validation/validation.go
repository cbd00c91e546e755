// Package validation checks registration and transfer submissions against
// field-format and cross-field rules. It performs no I/O.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/deedchain/internal/identity"
	"github.com/stwalsh4118/deedchain/internal/models"
)

// ErrorMap maps a form field name to the message of the first rule it failed.
// An empty map means the submission is accepted for settlement.
type ErrorMap map[string]string

var (
	nationalIDPattern = regexp.MustCompile(`^[0-9]{12}$`)
	voterIDPattern    = regexp.MustCompile(`^[A-Z]{3}[0-9]{7}$`)
	phonePattern      = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Tags used by the form structs and struct-level rules.
const (
	tagNotBlank       = "notblank"
	tagNationalID     = "nationalid"
	tagVoterID        = "voterid"
	tagPhone          = "phone10"
	tagEmail          = "contactemail"
	tagWallet         = "wallet"
	tagDistinctWallet = "distinctwallet"
	tagDocument       = "document"
)

var messages = map[string]string{
	tagNotBlank:       "{0} is required",
	tagNationalID:     "{0} must be exactly 12 digits",
	tagVoterID:        "{0} must be 3 uppercase letters followed by 7 digits",
	tagPhone:          "{0} must be exactly 10 digits",
	tagEmail:          "{0} must be a valid email address",
	tagWallet:         "{0} must be a 0x-prefixed 40 character hex address",
	tagDistinctWallet: "{0} must differ from the seller address",
	tagDocument:       "{0} document is required",
}

var (
	engine     *validator.Validate
	translator ut.Translator
)

func init() {
	engine, translator = newEngine()
}

// newEngine builds the validator with every custom rule and English messages registered.
func newEngine() (*validator.Validate, ut.Translator) {
	v := validator.New()

	// Report JSON field names so keys match what clients submit
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, tagNotBlank, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, tagNationalID, matches(nationalIDPattern))
	mustRegister(v, tagVoterID, matches(voterIDPattern))
	mustRegister(v, tagPhone, matches(phonePattern))
	mustRegister(v, tagEmail, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	mustRegister(v, tagWallet, func(fl validator.FieldLevel) bool {
		return identity.IsAddress(strings.TrimSpace(fl.Field().String()))
	})

	v.RegisterStructValidation(registrationRules, models.RegistrationForm{})
	v.RegisterStructValidation(transferRules, models.TransferForm{})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	for tag, text := range messages {
		err := v.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(fe.Tag(), fe.Field())
				if err != nil {
					return fe.Error()
				}
				return msg
			},
		)
		if err != nil {
			panic("validation: register translation " + tag + ": " + err.Error())
		}
	}

	return v, trans
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidateRegistration checks a registration submission. Every failing rule
// contributes one entry; nothing is short-circuited.
func ValidateRegistration(form models.RegistrationForm) ErrorMap {
	return collect(engine.Struct(form))
}

// ValidateTransfer checks a transfer submission. Every failing rule
// contributes one entry; nothing is short-circuited.
func ValidateTransfer(form models.TransferForm) ErrorMap {
	return collect(engine.Struct(form))
}

func registrationRules(sl validator.StructLevel) {
	form, ok := sl.Current().Interface().(models.RegistrationForm)
	if !ok {
		return
	}
	requireDocuments(sl, form.Documents, models.RegistrationDocuments)
}

func transferRules(sl validator.StructLevel) {
	form, ok := sl.Current().Interface().(models.TransferForm)
	if !ok {
		return
	}

	// Only compare well-formed addresses; malformed ones already carry a wallet error.
	seller := strings.TrimSpace(form.SellerAddress)
	buyer := strings.TrimSpace(form.BuyerAddress)
	if identity.IsAddress(seller) && identity.IsAddress(buyer) && models.SameAddress(seller, buyer) {
		sl.ReportError(form.BuyerAddress, "buyerAddress", "BuyerAddress", tagDistinctWallet, "")
	}

	if form.DocumentBearing() {
		requireDocuments(sl, form.Documents, models.TransferDocuments)
	}
}

func requireDocuments(sl validator.StructLevel, docs map[models.DocumentType]*models.DocumentFile, required []models.DocumentType) {
	for _, doc := range required {
		if docs[doc] == nil {
			sl.ReportError("", string(doc), string(doc), tagDocument, "")
		}
	}
}

// collect converts validator output into an ErrorMap, keeping the first message per field.
func collect(err error) ErrorMap {
	out := ErrorMap{}
	if err == nil {
		return out
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out["form"] = err.Error()
		return out
	}

	for _, fe := range fieldErrs {
		key := fe.Field()
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = fe.Translate(translator)
	}
	return out
}
