package notifier

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// VoiceScript settings for the call script fetched by the telephony provider
type VoiceScript struct {
	AudioURL        string
	Voice           string
	Language        string
	EmergencyNumber string
}

type twimlSay struct {
	Voice    string `xml:"voice,attr"`
	Language string `xml:"language,attr"`
	Text     string `xml:",chardata"`
}

type twimlResponse struct {
	XMLName xml.Name  `xml:"Response"`
	Play    string    `xml:"Play,omitempty"`
	Say     *twimlSay `xml:"Say,omitempty"`
	Hangup  *struct{} `xml:"Hangup"`
}

// entityDecoder undoes pre-escaped entities so marshalling escapes exactly once.
var entityDecoder = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

// AlertMessage spoken text for text-to-speech calls.
func (s VoiceScript) AlertMessage(patientName string) string {
	emergency := s.EmergencyNumber
	if emergency == "" {
		emergency = "999"
	}
	return fmt.Sprintf("Hello, this is an urgent alert from MindTrack. %s has indicated they may be in crisis and needs immediate support. Please reach out to them as soon as possible. If this is an emergency, please call %s. Thank you.", patientName, emergency)
}

// Render returns the TwiML document: Play+Hangup when an audio URL is set,
// otherwise Say+Hangup. Blank names render as "a patient".
func (s VoiceScript) Render(patientName string) ([]byte, error) {
	if strings.TrimSpace(patientName) == "" {
		patientName = "a patient"
	}

	resp := twimlResponse{Hangup: &struct{}{}}
	if audio := RawAudioURL(s.AudioURL); audio != "" {
		resp.Play = entityDecoder.Replace(audio)
	} else {
		voice := s.Voice
		if voice == "" {
			voice = "alice"
		}
		lang := s.Language
		if lang == "" {
			lang = "en"
		}
		resp.Say = &twimlSay{Voice: voice, Language: lang, Text: s.AlertMessage(patientName)}
	}

	body, err := xml.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render voice script: %w", err)
	}
	return append([]byte(`<?xml version="1.0" encoding="UTF-8"?>`+"\n"), body...), nil
}

// RawAudioURL trims the URL and rewrites GitHub "blob" page links to the raw file host.
func RawAudioURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.Contains(u, "github.com") && strings.Contains(u, "/blob/") {
		u = strings.Replace(u, "/blob/", "/", 1)
		u = strings.Replace(u, "github.com", "raw.githubusercontent.com", 1)
	}
	return u
}
