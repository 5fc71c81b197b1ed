package models

// Preference is a durable key/value user setting.
type Preference struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}

// Well-known preference keys.
const (
	PrefInvestorName = "investor_name"
	PrefLanguage     = "language"
	PrefTheme        = "theme"
	PrefTextSize     = "text_size"
	PrefFirstVisit   = "first_visit"
)
