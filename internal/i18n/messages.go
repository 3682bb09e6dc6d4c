// Package i18n resolves typed message keys against per-locale string tables.
// Core services report status through keys; only the presentation layer
// resolves them to display strings.
package i18n

// MessageKey identifies one translatable string.
type MessageKey string

const (
	KeyAppTitle         MessageKey = "app_title"
	KeyOverdue          MessageKey = "overdue"
	KeyDueSoon          MessageKey = "due_soon"
	KeyOnTime           MessageKey = "on_time"
	KeyDueNow           MessageKey = "due_now"
	KeyOverdueBy        MessageKey = "overdue_by"
	KeyTimeRemaining    MessageKey = "time_remaining"
	KeyAllInCamp        MessageKey = "all_in_camp"
	KeyOverdueAlert     MessageKey = "overdue_alert"
	KeyCurrentlyOut     MessageKey = "currently_out"
	KeyTotalActive      MessageKey = "total_active"
	KeyMembersOut       MessageKey = "members_out"
	KeySomeOverdue      MessageKey = "some_overdue"
	KeyMarkedReturned   MessageKey = "marked_returned"
	KeyGroupReturned    MessageKey = "group_returned_success"
	KeyExtendedSuccess  MessageKey = "extended_success"
	KeySuccessDeparture MessageKey = "success_departure"
	KeyErrNameDest      MessageKey = "error_name_dest"
	KeyErrDestination   MessageKey = "error_destination"
	KeyErrSelectName    MessageKey = "error_select_name"
	KeyFillAllFields    MessageKey = "fill_all_fields"
	KeyGroupEmpty       MessageKey = "group_empty"
	KeyInvalidCoords    MessageKey = "invalid_coordinates"
	KeyPasswordWrong    MessageKey = "password_incorrect"
	KeyNoData           MessageKey = "no_data"
)

// DefaultLocale is used when a requested locale has no table.
const DefaultLocale = "en"

var tables = map[string]map[MessageKey]string{
	"en": {
		KeyAppTitle:         "JMP Tracker",
		KeyOverdue:          "Overdue",
		KeyDueSoon:          "Due Soon (<30min)",
		KeyOnTime:           "On Time",
		KeyDueNow:           "Due now",
		KeyOverdueBy:        "Overdue by %dh %dm",
		KeyTimeRemaining:    "%dh %dm remaining",
		KeyAllInCamp:        "All personnel are in camp!",
		KeyOverdueAlert:     "ALERT: %d OVERDUE PERSONNEL",
		KeyCurrentlyOut:     "Currently Out",
		KeyTotalActive:      "Total Active",
		KeyMembersOut:       "%d members out",
		KeySomeOverdue:      "Some members are overdue!",
		KeyMarkedReturned:   "marked as returned",
		KeyGroupReturned:    "All members of '%s' marked as returned",
		KeyExtendedSuccess:  "Extended %s's return time by %d hours",
		KeySuccessDeparture: "%s logged as departed to %s",
		KeyErrNameDest:      "Please enter name and destination",
		KeyErrDestination:   "Please enter destination",
		KeyErrSelectName:    "Please select or enter a name",
		KeyFillAllFields:    "Please fill in all fields",
		KeyGroupEmpty:       "Group cannot be empty",
		KeyInvalidCoords:    "Invalid coordinates format",
		KeyPasswordWrong:    "Password incorrect",
		KeyNoData:           "No data available",
	},
	"fr": {
		KeyAppTitle:         "Suivi JMP",
		KeyOverdue:          "En retard",
		KeyDueSoon:          "Bientôt dû (<30min)",
		KeyOnTime:           "À temps",
		KeyDueNow:           "Dû maintenant",
		KeyOverdueBy:        "En retard de %dh %dm",
		KeyTimeRemaining:    "%dh %dm restant",
		KeyAllInCamp:        "Tout le personnel est au camp!",
		KeyOverdueAlert:     "ALERTE: %d PERSONNEL EN RETARD",
		KeyCurrentlyOut:     "Actuellement sorti",
		KeyTotalActive:      "Total actif",
		KeyMembersOut:       "%d membres sortis",
		KeySomeOverdue:      "Certains membres sont en retard!",
		KeyMarkedReturned:   "marqué comme retourné",
		KeyGroupReturned:    "Tous les membres de '%s' marqués comme retournés",
		KeyExtendedSuccess:  "Temps de retour de %s prolongé de %d heures",
		KeySuccessDeparture: "%s enregistré comme parti vers %s",
		KeyErrNameDest:      "Veuillez entrer le nom et la destination",
		KeyErrDestination:   "Veuillez entrer la destination",
		KeyErrSelectName:    "Veuillez sélectionner ou entrer un nom",
		KeyFillAllFields:    "Veuillez remplir tous les champs",
		KeyGroupEmpty:       "Le groupe ne peut pas être vide",
		KeyInvalidCoords:    "Format de coordonnées invalide",
		KeyPasswordWrong:    "Mot de passe incorrect",
		KeyNoData:           "Aucune donnée disponible",
	},
}

// Resolve returns the string for key in the given locale, falling back to the
// default locale and then to the key itself, so a missing translation never
// breaks a page.
func Resolve(locale string, key MessageKey) string {
	if table, ok := tables[locale]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if s, ok := tables[DefaultLocale][key]; ok {
		return s
	}
	return string(key)
}

// Table returns the full message table for a locale (default locale when the
// requested one is unknown). Served to the UI so it can render offline.
func Table(locale string) map[MessageKey]string {
	if table, ok := tables[locale]; ok {
		return table
	}
	return tables[DefaultLocale]
}

// Locales lists the supported locale codes.
func Locales() []string {
	return []string{"en", "fr"}
}
