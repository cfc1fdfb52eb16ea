package model

// Setting is a key/value pair of application configuration editable by admins.
type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(50)"`
	Value string `gorm:"type:text;not null"`
}

func (Setting) TableName() string { return "setting" }

const (
	SettingWarningDays      = "maintenance_warning_days"
	SettingWhatsAppTemplate = "whatsapp_message_template"
)

// DefaultWhatsAppTemplate is served when no template was saved yet.
const DefaultWhatsAppTemplate = "Hello, {client_name}! This is a reminder about the maintenance of your equipment " +
	"'{equipment_model} ({equipment_code})', scheduled for {maintenance_date}."
