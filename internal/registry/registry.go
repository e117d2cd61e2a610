// Package registry describes the closed sets of form field types and CMS
// content types as they are offered to the user.
package registry

import "github.com/brandoo/console/internal/models"

// PropertyEntry is a selectable form field type.
type PropertyEntry struct {
	Type  models.PropertyType `json:"type"`
	Label string              `json:"label"`
	Icon  string              `json:"icon"`
}

// ContentEntry is a selectable CMS content type.
type ContentEntry struct {
	Type  models.ContentType `json:"type"`
	Label string             `json:"label"`
	Icon  string             `json:"icon"`
}

var propertyTypes = []PropertyEntry{
	{models.PropertyShortText, "Stručná odpověď", "text-short"},
	{models.PropertyLongText, "Delší odpověď", "text-long"},
	{models.PropertyBoolean, "Ano/Ne", "toggle-switch"},
	{models.PropertyRadio, "Výběr jedné možnosti", "radiobox-marked"},
	{models.PropertyCheckbox, "Výběr více možností", "checkbox-marked"},
	{models.PropertySelection, "Výběr z možností", "menu-down"},
	{models.PropertyTime, "Čas", "timer"},
	{models.PropertyDateTime, "Datum", "calendar-blank"},
	{models.PropertyFile, "Soubor", "file"},
}

var contentTypes = []ContentEntry{
	{models.ContentText, "Jednoduchý Text", "text-box"},
	{models.ContentListText, "List Textu", "format-list-bulleted-square"},
	{models.ContentImage, "Obrázek", "image"},
	{models.ContentHTML, "Složitý text", "code-block-tags"},
	{models.ContentItem, "Položka", "card"},
	{models.ContentListItem, "List Položek", "list-box"},
}

// PropertyTypes returns the field types in display order.
func PropertyTypes() []PropertyEntry {
	return append([]PropertyEntry(nil), propertyTypes...)
}

// ContentTypes returns the content types in display order.
func ContentTypes() []ContentEntry {
	return append([]ContentEntry(nil), contentTypes...)
}

// Property returns the entry for t.
func Property(t models.PropertyType) (PropertyEntry, bool) {
	for _, e := range propertyTypes {
		if e.Type == t {
			return e, true
		}
	}
	return PropertyEntry{}, false
}

// Content returns the entry for t.
func Content(t models.ContentType) (ContentEntry, bool) {
	for _, e := range contentTypes {
		if e.Type == t {
			return e, true
		}
	}
	return ContentEntry{}, false
}

// IsChoice reports whether fields of type t carry an option list.
func IsChoice(t models.PropertyType) bool {
	switch t {
	case models.PropertyRadio, models.PropertyCheckbox, models.PropertySelection:
		return true
	}
	return false
}

// Reserved lists the keys every form is expected to carry. Fields with
// these keys cannot be removed and keep their key when relabelled.
var Reserved = []string{models.KeyEmail, models.KeyAgreedToPrivacyPolicy}

// IsReserved reports whether key is reserved.
func IsReserved(key string) bool {
	for _, k := range Reserved {
		if k == key {
			return true
		}
	}
	return false
}

// FormProperty is a predefined contact attribute offered by legacy contact
// forms.
type FormProperty struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// SelectFormProperties is the catalogue of predefined contact attributes.
var SelectFormProperties = []FormProperty{
	{"Souhlasil s podmínkami", "agreedToPrivacyPolicy"},
	{"Email", "email"},
	{"Jméno", "name"},
	{"Křestní jméno", "firstName"},
	{"Prostřední jméno", "middleName"},
	{"Příjmení", "lastName"},
	{"Název společnosti", "companyName"},
	{"Práce", "job"},
	{"Země", "country"},
	{"Stát", "state"},
	{"Město", "city"},
	{"PSČ", "postalCode"},
	{"Preferovaný způsob kontaktu", "prefferedContactMethod"},
	{"Preferovaný čas kontaktu", "prefferedContactTime"},
	{"Sekundární email", "secondaryEmail"},
	{"Sekundární telefon", "secondaryPhone"},
	{"Zdroj doporučení", "referralSource"},
	{"Poznámky", "notes"},
	{"Telefon", "phone"},
	{"Adresa", "address"},
	{"Počáteční zpráva", "initialMessage"},
	{"Souhlasil s newsletterem", "agreedToNewsLetter"},
}
