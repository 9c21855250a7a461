package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/session-audit/backend/internal/models"
)

const (
	FieldUser             = "user"
	FieldAsset            = "asset"
	FieldInput            = "input"
	FieldSession          = "session"
	FieldRiskLevel        = "risk_level"
	FieldTenantID         = "tenant_id"
	FieldID               = "id"
	FieldAccount          = "account"
	FieldOutput           = "output"
	FieldTimestamp        = "timestamp"
	FieldTimestampDisplay = "timestamp_display"
	FieldRemoteAddr       = "remote_addr"
)

// BaseFields is the field set shared by command records and alerts.
var BaseFields = []string{
	FieldUser, FieldAsset, FieldInput, FieldSession, FieldRiskLevel, FieldTenantID,
}

// CommandFields is the presentation order of a full command record.
var CommandFields = concatFields(BaseFields, []string{
	FieldID, FieldAccount, FieldOutput, FieldTimestamp, FieldTimestampDisplay, FieldRemoteAddr,
})

func concatFields(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

const (
	msgRequired      = "this field is required"
	msgNull          = "this field may not be null"
	msgBlank         = "this field may not be blank"
	msgNotString     = "not a valid string"
	msgMaxLength     = "ensure this field has no more than %d characters"
	msgInvalidInt    = "a valid integer is required"
	msgInvalidChoice = "%q is not a valid choice"
	msgNullChar      = "null characters are not allowed"
)

type charRule struct {
	required   bool
	allowNull  bool
	allowBlank bool
	maxLength  int
}

var (
	userRule    = charRule{required: true}
	assetRule   = charRule{required: true, maxLength: 128}
	inputRule   = charRule{required: true, maxLength: 2048}
	sessionRule = charRule{required: true, maxLength: 36}
	tenantRule  = charRule{allowNull: true, allowBlank: true, maxLength: 36}
	accountRule = charRule{required: true}
	outputRule  = charRule{required: true, allowBlank: true, maxLength: 2048}
)

// RawCommand is an undecoded command record as received from a client.
type RawCommand map[string]json.RawMessage

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// decodeScalar accepts JSON strings and numbers, returning their text form.
func decodeScalar(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", false
	}
	switch c := v[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	case c == '-' || (c >= '0' && c <= '9'):
		return string(v), true
	}
	return "", false
}

func (r RawCommand) char(errs *models.ValidationError, name string, rule charRule) *string {
	v, ok := r[name]
	if !ok {
		if rule.required {
			errs.Add(name, msgRequired)
		}
		return nil
	}
	if isNull(v) {
		if !rule.allowNull {
			errs.Add(name, msgNull)
		}
		return nil
	}
	s, ok := decodeScalar(v)
	if !ok {
		errs.Add(name, msgNotString)
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.ContainsRune(s, 0) {
		errs.Add(name, msgNullChar)
		return nil
	}
	if s == "" && !rule.allowBlank {
		errs.Add(name, msgBlank)
		return nil
	}
	if rule.maxLength > 0 && utf8.RuneCountInString(s) > rule.maxLength {
		errs.Add(name, fmt.Sprintf(msgMaxLength, rule.maxLength))
		return nil
	}
	return &s
}

var trailingZeroFraction = regexp.MustCompile(`\.0*\s*$`)

func parseInt(v json.RawMessage) (int64, bool) {
	s, ok := decodeScalar(v)
	if !ok {
		return 0, false
	}
	s = trailingZeroFraction.ReplaceAllString(strings.TrimSpace(s), "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r RawCommand) integer(errs *models.ValidationError, name string) (int64, bool) {
	v, ok := r[name]
	if !ok {
		errs.Add(name, msgRequired)
		return 0, false
	}
	if isNull(v) {
		errs.Add(name, msgNull)
		return 0, false
	}
	n, ok := parseInt(v)
	if !ok {
		errs.Add(name, msgInvalidInt)
		return 0, false
	}
	return n, true
}

// riskLevel accepts 4, "4" or {"value": 4}.
func (r RawCommand) riskLevel(errs *models.ValidationError) *models.RiskLevel {
	v, ok := r[FieldRiskLevel]
	if !ok {
		return nil
	}
	if isNull(v) {
		errs.Add(FieldRiskLevel, msgNull)
		return nil
	}
	if t := bytes.TrimSpace(v); len(t) > 0 && t[0] == '{' {
		var choice struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(t, &choice); err != nil || len(choice.Value) == 0 {
			errs.Add(FieldRiskLevel, fmt.Sprintf(msgInvalidChoice, string(t)))
			return nil
		}
		v = choice.Value
	}
	// choices match on exact text, so 4.0 and "4.0" are not 4
	s, ok := decodeScalar(v)
	n, err := strconv.Atoi(s)
	level := models.RiskLevel(n)
	if !ok || err != nil || !level.IsValid() {
		errs.Add(FieldRiskLevel, fmt.Sprintf(msgInvalidChoice, strings.Trim(string(bytes.TrimSpace(v)), `"`)))
		return nil
	}
	return &level
}

func (r RawCommand) tenant(errs *models.ValidationError) *string {
	if _, ok := r[FieldTenantID]; !ok {
		empty := ""
		return &empty
	}
	return r.char(errs, FieldTenantID, tenantRule)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Value returns the tabular value of one named field of cmd.
func Value(cmd *models.Command, field string) any {
	switch field {
	case FieldUser:
		return cmd.User
	case FieldAsset:
		return cmd.Asset
	case FieldInput:
		return cmd.Input
	case FieldSession:
		return cmd.Session
	case FieldRiskLevel:
		if cmd.RiskLevel == nil {
			return ""
		}
		return cmd.RiskLevel.Label()
	case FieldTenantID:
		return deref(cmd.TenantID)
	case FieldID:
		if cmd.ID == nil {
			return ""
		}
		return cmd.ID.String()
	case FieldAccount:
		return cmd.Account
	case FieldOutput:
		return cmd.Output
	case FieldTimestamp:
		return cmd.Timestamp
	case FieldTimestampDisplay:
		if cmd.TimestampDisplay == nil {
			return ""
		}
		return cmd.TimestampDisplay.Format("2006-01-02 15:04:05")
	case FieldRemoteAddr:
		return cmd.RemoteAddr
	}
	return nil
}

// Row returns cmd's values in CommandFields order.
func Row(cmd *models.Command) []any {
	row := make([]any, len(CommandFields))
	for i, f := range CommandFields {
		row[i] = Value(cmd, f)
	}
	return row
}
