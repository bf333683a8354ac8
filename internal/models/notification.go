package models

// Contact provenance
const (
	ContactDoctor           = "doctor"
	ContactEmergencyContact = "emergency_contact"
	ContactExtra            = "extra"
)

// Notification reason codes. The set is closed; clients switch on these.
const (
	ReasonMailDisabled      = "mail_disabled"
	ReasonMailNotConfigured = "mail_not_configured"
	ReasonNoRecipients      = "no_recipients"
	ReasonSendFailed        = "send_failed"

	ReasonVoiceCallsDisabled  = "voice_calls_disabled"
	ReasonTwilioNotConfigured = "twilio_not_configured"
	ReasonNoPhoneNumbers      = "no_phone_numbers"
	ReasonInvalidPhone        = "invalid_phone"
	ReasonInvalidPhoneNumber  = "invalid_phone_number"
	ReasonInvalidCallerID     = "invalid_caller_id"
	ReasonGeoPermissionDenied = "geo_permission_denied"
	ReasonUnsubscribedNumber  = "unsubscribed_number"
	ReasonAPIURLNotConfigured = "api_url_not_configured"
	ReasonTwimlInaccessible   = "twiml_endpoint_inaccessible"
	ReasonCallFailed          = "call_failed"
)

// ResolvedContact a deduplicated notification target. Exactly one of Phone/Email is set.
type ResolvedContact struct {
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Relationship string `json:"relationship,omitempty"`
}

// NotificationResult outcome of one red alert. Returned to the caller and logged, never stored.
type NotificationResult struct {
	Emails     EmailResult      `json:"emails"`
	VoiceCalls VoiceCallsResult `json:"voiceCalls"`
}

// EmailResult outcome of the single alert email
type EmailResult struct {
	Sent       bool     `json:"sent"`
	Reason     string   `json:"reason,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
	Count      int      `json:"count,omitempty"`
	MessageID  string   `json:"messageId,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// VoiceCallsResult per-number call outcomes; Sent is true when any call was placed.
type VoiceCallsResult struct {
	Sent    bool              `json:"sent"`
	Reason  string            `json:"reason,omitempty"`
	Calls   []CallResult      `json:"calls"`
	Details *TelephonyDetails `json:"details,omitempty"`
}

// TelephonyDetails which Twilio settings are present when the client could not be built
type TelephonyDetails struct {
	HasAccountSID  bool `json:"hasAccountSid"`
	HasAuthToken   bool `json:"hasAuthToken"`
	HasPhoneNumber bool `json:"hasPhoneNumber"`
}

// CallResult one outbound call attempt
type CallResult struct {
	Phone            string            `json:"phone"`
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	Relationship     string            `json:"relationship,omitempty"`
	Sent             bool              `json:"sent"`
	CallSid          string            `json:"callSid,omitempty"`
	Status           string            `json:"status,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	Error            string            `json:"error,omitempty"`
	Code             int               `json:"code,omitempty"`
	NumberValidation *NumberValidation `json:"numberValidation,omitempty"`
}

// NumberValidation carrier lookup result; Error is set when the lookup failed.
type NumberValidation struct {
	CountryCode string `json:"countryCode,omitempty"`
	Carrier     string `json:"carrier,omitempty"`
	Type        string `json:"type,omitempty"`
	Error       string `json:"error,omitempty"`
}
