package dto

type SettingsResponse struct {
	WarningDays      int    `json:"maintenance_warning_days"`
	WhatsAppTemplate string `json:"whatsapp_message_template"`
}

// UpdateSettingsRequest leaves a setting untouched when its field is absent.
type UpdateSettingsRequest struct {
	WarningDays      *int    `json:"maintenance_warning_days"  validate:"omitempty,min=0,max=365"`
	WhatsAppTemplate *string `json:"whatsapp_message_template" validate:"omitempty,max=2000"`
}
