// ABOUTME: Application settings grouped into company, system, notification, privacy and security categories
// ABOUTME: Typed defaults plus validation rules expressed as validator struct tags
package settings

import (
	"github.com/pkg/errors"
)

type Category string

const (
	CategoryCompany       Category = "company"
	CategorySystem        Category = "system"
	CategoryNotifications Category = "notifications"
	CategoryPrivacy       Category = "privacy"
	CategorySecurity      Category = "security"
)

var Categories = []Category{CategoryCompany, CategorySystem, CategoryNotifications, CategoryPrivacy, CategorySecurity}

var ErrUnknownCategory = errors.New("settings category not found")

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownCategory, "'%s'", s)
}

type Company struct {
	Name    string  `json:"name" yaml:"name" validate:"required"`
	Email   string  `json:"email" yaml:"email" validate:"omitempty,email"`
	Phone   string  `json:"phone" yaml:"phone"`
	Address string  `json:"address" yaml:"address"`
	City    string  `json:"city" yaml:"city"`
	Country string  `json:"country" yaml:"country"`
	Website string  `json:"website" yaml:"website" validate:"omitempty,url"`
	Logo    *string `json:"logo" yaml:"logo"`
}

type System struct {
	Timezone   string `json:"timezone" yaml:"timezone"`
	DateFormat string `json:"dateFormat" yaml:"dateFormat"`
	TimeFormat string `json:"timeFormat" yaml:"timeFormat"`
	Currency   string `json:"currency" yaml:"currency"`
	Language   string `json:"language" yaml:"language"`
	FiscalYear string `json:"fiscalYear" yaml:"fiscalYear"`
}

type Notifications struct {
	EmailAlerts          bool `json:"emailAlerts" yaml:"emailAlerts"`
	BrowserNotifications bool `json:"browserNotifications" yaml:"browserNotifications"`
	DailyDigest          bool `json:"dailyDigest" yaml:"dailyDigest"`
	WeeklyReport         bool `json:"weeklyReport" yaml:"weeklyReport"`
	MentionAlerts        bool `json:"mentionAlerts" yaml:"mentionAlerts"`
	TaskReminders        bool `json:"taskReminders" yaml:"taskReminders"`
}

type Privacy struct {
	DataRetention    int  `json:"dataRetention" yaml:"dataRetention"`
	CookieConsent    bool `json:"cookieConsent" yaml:"cookieConsent"`
	AnalyticsEnabled bool `json:"analyticsEnabled" yaml:"analyticsEnabled"`
	ShareUsageData   bool `json:"shareUsageData" yaml:"shareUsageData"`
}

type Security struct {
	PasswordExpiration int  `json:"passwordExpiration" yaml:"passwordExpiration" validate:"min=30,max=365"`
	TwoFactorRequired  bool `json:"twoFactorRequired" yaml:"twoFactorRequired"`
	SessionTimeout     int  `json:"sessionTimeout" yaml:"sessionTimeout" validate:"min=15,max=480"`
	LoginAttempts      int  `json:"loginAttempts" yaml:"loginAttempts"`
}

type Settings struct {
	Company       Company       `json:"company" yaml:"company"`
	System        System        `json:"system" yaml:"system"`
	Notifications Notifications `json:"notifications" yaml:"notifications"`
	Privacy       Privacy       `json:"privacy" yaml:"privacy"`
	Security      Security      `json:"security" yaml:"security"`
}

func DefaultSystem() System {
	return System{
		Timezone:   "America/Los_Angeles",
		DateFormat: "MM/DD/YYYY",
		TimeFormat: "12-hour",
		Currency:   "USD",
		Language:   "English",
		FiscalYear: "January",
	}
}

func DefaultNotifications() Notifications {
	return Notifications{
		EmailAlerts:          true,
		BrowserNotifications: true,
		DailyDigest:          true,
		WeeklyReport:         false,
		MentionAlerts:        true,
		TaskReminders:        true,
	}
}

func Defaults() Settings {
	return Settings{
		Company: Company{
			Name:    "Nexus Corporation",
			Email:   "admin@nexuscorp.com",
			Phone:   "+1 (555) 123-4567",
			Address: "123 Business Ave, Suite 100",
			City:    "San Francisco",
			Country: "United States",
			Website: "https://nexuscorp.com",
		},
		System:        DefaultSystem(),
		Notifications: DefaultNotifications(),
		Privacy: Privacy{
			DataRetention:    365,
			CookieConsent:    true,
			AnalyticsEnabled: true,
			ShareUsageData:   false,
		},
		Security: Security{
			PasswordExpiration: 90,
			TwoFactorRequired:  false,
			SessionTimeout:     60,
			LoginAttempts:      5,
		},
	}
}

// section returns a pointer to the category inside st.
func section(st *Settings, category Category) (interface{}, error) {
	switch category {
	case CategoryCompany:
		return &st.Company, nil
	case CategorySystem:
		return &st.System, nil
	case CategoryNotifications:
		return &st.Notifications, nil
	case CategoryPrivacy:
		return &st.Privacy, nil
	case CategorySecurity:
		return &st.Security, nil
	}
	return nil, errors.Wrapf(ErrUnknownCategory, "'%s'", category)
}
