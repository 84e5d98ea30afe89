package publish

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// Record is the metadata of one speech file as accepted by the Speech API.
// Optional values left empty are omitted from the request body.
type Record struct {
	// Required
	CallIdentifier  string `json:"call_identifier"`
	SpeechFileName  string `json:"speech_file_name"`
	UnitIdentifier  string `json:"unit_identifier"`
	CallDateAndTime string `json:"call_date_and_time"`

	// Optional
	CallRecordingURL     string            `json:"call_recording_url,omitempty"`
	VerticalModel        VerticalModel     `json:"vertical_model,omitempty"`
	Locale               string            `json:"locale,omitempty"`
	AgentLocale          string            `json:"agent_locale,omitempty"`
	ApplyDiarization     string            `json:"apply_diarization,omitempty"`
	AgentChannel         AgentChannel      `json:"agent_channel,omitempty"`
	Substitutions        map[string]string `json:"substitutions,omitempty"`
	ApplyRedaction       YesNo             `json:"apply_redaction,omitempty"`
	FirstName            string            `json:"first_name,omitempty"`
	LastName             string            `json:"last_name,omitempty"`
	Email                string            `json:"email,omitempty"`
	PhoneNumber          string            `json:"phone_number,omitempty"`
	ConnectionID         string            `json:"connection_id,omitempty"`
	ProfileUUID          string            `json:"profile_uuid,omitempty"` // Deprecated: kept for older gateways
	Engine               Engine            `json:"engine,omitempty"`
	ConnectorID          string            `json:"connector_id,omitempty"`
	SpeechAdditionalInfo map[string]string `json:"speech_additional_info,omitempty"`
}

// ItemID identifies the record in error lines by its speech file name
func (r Record) ItemID() string {
	return r.SpeechFileName
}

// Validate checks that the required attributes are present
func (r Record) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"call_identifier", r.CallIdentifier},
		{"speech_file_name", r.SpeechFileName},
		{"unit_identifier", r.UnitIdentifier},
		{"call_date_and_time", r.CallDateAndTime},
	}

	var errs []error
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			errs = append(errs, util.NewValidationError(req.field, req.value, "is required"))
		}
	}
	return util.CombineErrors(errs...)
}

// VerticalModel selects the transcription model
type VerticalModel string

const (
	VerticalCallCenter        VerticalModel = "Call Center"
	VerticalFinancialServices VerticalModel = "Financial Services"
	VerticalHealthcare        VerticalModel = "Healthcare"
	VerticalVoicemail         VerticalModel = "Voicemail"
	VerticalSurvey            VerticalModel = "Survey"
	VerticalLargeVocab        VerticalModel = "Large Vocab"
	VerticalGeneral           VerticalModel = "General"
)

var verticalModels = []VerticalModel{
	VerticalCallCenter,
	VerticalFinancialServices,
	VerticalHealthcare,
	VerticalVoicemail,
	VerticalSurvey,
	VerticalLargeVocab,
	VerticalGeneral,
}

// ParseVerticalModel matches s against the display names, ignoring case.
// A blank value yields the empty model.
func ParseVerticalModel(s string) (VerticalModel, error) {
	return parseEnum("vertical_model", s, verticalModels)
}

// UnmarshalJSON accepts any casing of a known display name
func (v *VerticalModel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, v, ParseVerticalModel)
}

// AgentChannel tells which channel of the recording carries the agent
type AgentChannel string

const (
	// AgentChannel0 means the agent is on channel 0 and the client on 1
	AgentChannel0 AgentChannel = "0"
	// AgentChannel1 means the agent is on channel 1 and the client on 0
	AgentChannel1 AgentChannel = "1"
)

// ParseAgentChannel accepts "0" or "1"; blank yields the empty value
func ParseAgentChannel(s string) (AgentChannel, error) {
	return parseEnum("agent_channel", s, []AgentChannel{AgentChannel0, AgentChannel1})
}

// UnmarshalJSON validates the channel
func (a *AgentChannel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, a, ParseAgentChannel)
}

// YesNo is a boolean spelled out as Yes or No
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// ParseYesNo matches yes/no ignoring case; blank yields the empty value
func ParseYesNo(s string) (YesNo, error) {
	return parseEnum("apply_redaction", s, []YesNo{Yes, No})
}

// UnmarshalJSON accepts any casing of Yes or No
func (y *YesNo) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, y, ParseYesNo)
}

// Engine selects the speech engine
type Engine string

const (
	Engine1 Engine = "Engine 1"
	Engine2 Engine = "Engine 2"
	Engine3 Engine = "Engine 3"
)

// ParseEngine matches the engine display name ignoring case
func ParseEngine(s string) (Engine, error) {
	return parseEnum("engine", s, []Engine{Engine1, Engine2, Engine3})
}

// UnmarshalJSON accepts any casing of a known engine name
func (e *Engine) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, e, ParseEngine)
}

// ParseStringMap decodes a JSON object of string values, as used by the
// substitutions and speech_additional_info columns. Blank yields nil.
func ParseStringMap(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("invalid map value %q: %w", s, err)
	}
	return m, nil
}

func parseEnum[E ~string](field, s string, values []E) (E, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, v := range values {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}

	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return "", util.NewValidationError(field, s, "must be one of: "+strings.Join(names, ", "))
}

func unmarshalEnum[E ~string](data []byte, dst *E, parse func(string) (E, error)) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
