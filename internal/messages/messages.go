// Package messages turns error codes into text an operator can read at the
// till. English is the default; Indonesian is bundled for the shop floor.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	errors "github.com/frahmantamala/optical-pos/internal"
)

var english = map[errors.ErrorCode]string{
	errors.ErrCodeValidationFailed:    "Some fields are not valid.",
	errors.ErrCodeInvalidQuantity:     "Quantity must be a whole number greater than zero.",
	errors.ErrCodeInvalidAmount:       "Amount must not be negative.",
	errors.ErrCodeInvalidReason:       "Please enter a reason.",
	errors.ErrCodeInsufficientStock:   "Not enough stock on hand for this change.",
	errors.ErrCodeProtectedItem:       "This item is protected and cannot be deactivated.",
	errors.ErrCodePurchaseOrderEmpty:  "A purchase order needs at least one line.",
	errors.ErrCodeDuplicateUsername:   "That username is already taken.",
	errors.ErrCodeDuplicateSKU:        "That SKU already exists.",
	errors.ErrCodeOperatorNotFound:    "Operator not found.",
	errors.ErrCodeShiftNotFound:       "Shift not found.",
	errors.ErrCodeItemNotFound:        "Inventory item not found.",
	errors.ErrCodeOrderNotFound:       "Purchase order not found.",
	errors.ErrCodeOrderLineNotFound:   "That line is not part of this purchase order.",
	errors.ErrCodeShiftAlreadyOpen:    "You already have an open shift.",
	errors.ErrCodeShiftInvalidStatus:  "The shift is not in a state that allows this.",
	errors.ErrCodeShiftNotOwner:       "This shift belongs to another operator.",
	errors.ErrCodeShiftStateChanged:   "The shift was changed elsewhere. Reload and try again.",
	errors.ErrCodeShiftStorage:        "The shift could not be saved.",
	errors.ErrCodeOverReceipt:         "Received quantity would exceed the ordered quantity.",
	errors.ErrCodeOrderNotReceivable:  "This purchase order can no longer receive stock.",
	errors.ErrCodeOrderNotCancellable: "Only pending orders with nothing received can be cancelled.",
	errors.ErrCodeOperatorRequired:    "Please log in first.",
	errors.ErrCodeShiftRequired:       "Start or resume a shift first.",
	errors.ErrCodePermissionDenied:    "You do not have permission to do this.",
	errors.ErrCodeConcurrentUpdate:    "Someone else changed this record. Reload and try again.",
	errors.ErrCodeStorageFailure:      "The database could not complete the request.",
	errors.ErrCodeInvalidCredentials:  "Wrong username or password.",
	errors.ErrCodeOperatorInactive:    "This operator account is disabled.",
}

var indonesian = map[errors.ErrorCode]string{
	errors.ErrCodeValidationFailed:    "Beberapa isian tidak valid.",
	errors.ErrCodeInvalidQuantity:     "Jumlah harus bilangan bulat lebih dari nol.",
	errors.ErrCodeInvalidAmount:       "Nominal tidak boleh negatif.",
	errors.ErrCodeInvalidReason:       "Alasan wajib diisi.",
	errors.ErrCodeInsufficientStock:   "Stok tidak mencukupi untuk perubahan ini.",
	errors.ErrCodeProtectedItem:       "Barang ini dilindungi dan tidak bisa dinonaktifkan.",
	errors.ErrCodePurchaseOrderEmpty:  "Pesanan pembelian minimal harus memiliki satu baris.",
	errors.ErrCodeItemNotFound:        "Barang tidak ditemukan.",
	errors.ErrCodeOrderNotFound:       "Pesanan pembelian tidak ditemukan.",
	errors.ErrCodeShiftAlreadyOpen:    "Anda masih memiliki shift yang terbuka.",
	errors.ErrCodeShiftNotOwner:       "Shift ini milik operator lain.",
	errors.ErrCodeOverReceipt:         "Jumlah diterima melebihi jumlah yang dipesan.",
	errors.ErrCodeOperatorRequired:    "Silakan login terlebih dahulu.",
	errors.ErrCodeShiftRequired:       "Mulai atau lanjutkan shift terlebih dahulu.",
	errors.ErrCodePermissionDenied:    "Anda tidak memiliki izin untuk tindakan ini.",
	errors.ErrCodeConcurrentUpdate:    "Data diubah oleh pengguna lain. Muat ulang dan coba lagi.",
	errors.ErrCodeInvalidCredentials:  "Nama pengguna atau kata sandi salah.",
}

type Provider struct {
	builder *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag
	known   map[errors.ErrorCode]bool
}

func NewProvider() (*Provider, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	known := make(map[errors.ErrorCode]bool, len(english))

	for code, text := range english {
		if err := builder.SetString(language.English, string(code), text); err != nil {
			return nil, err
		}
		// untranslated codes read in English
		local, ok := indonesian[code]
		if !ok {
			local = text
		}
		if err := builder.SetString(language.Indonesian, string(code), local); err != nil {
			return nil, err
		}
		known[code] = true
	}

	tags := []language.Tag{language.English, language.Indonesian}
	return &Provider{
		builder: builder,
		matcher: language.NewMatcher(tags),
		tags:    tags,
		known:   known,
	}, nil
}

func (p *Provider) tag(lang string) language.Tag {
	requested, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, _ := p.matcher.Match(requested)
	return p.tags[idx]
}

// Message returns the text for code in lang. The second value is false for
// codes without a catalog entry.
func (p *Provider) Message(code errors.ErrorCode, lang string) (string, bool) {
	if !p.known[code] {
		return "", false
	}
	printer := message.NewPrinter(p.tag(lang), message.Catalog(p.builder))
	return printer.Sprintf(string(code)), true
}

// Render produces the operator-facing text for err. Errors outside the
// taxonomy fall back to the storage failure text so raw driver messages never
// reach the screen.
func (p *Provider) Render(err error, lang string) string {
	if err == nil {
		return ""
	}
	appErr, ok := errors.IsAppError(err)
	if !ok {
		text, _ := p.Message(errors.ErrCodeStorageFailure, lang)
		return text
	}
	if text, ok := p.Message(appErr.Code, lang); ok {
		if details, ok := appErr.Details.(errors.ValidationErrors); ok && len(details.Errors) > 0 {
			return text + " (" + appErr.GetDetailedMessage() + ")"
		}
		return text
	}
	return appErr.Message
}
