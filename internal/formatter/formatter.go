// Package formatter validates raw session command records and shapes them
// into their external representation.
package formatter

import (
	"fmt"
	"time"

	"github.com/session-audit/backend/internal/models"
)

// Formatter turns raw command records into validated, length-bounded
// records. It never touches storage.
type Formatter struct {
	loc *time.Location
}

// New returns a Formatter rendering timestamp_display in loc (UTC if nil).
func New(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

func (f *Formatter) base(raw RawCommand, errs *models.ValidationError) models.CommandBase {
	return models.CommandBase{
		User:      TruncateUser(deref(raw.char(errs, FieldUser, userRule))),
		Asset:     deref(raw.char(errs, FieldAsset, assetRule)),
		Input:     deref(raw.char(errs, FieldInput, inputRule)),
		Session:   deref(raw.char(errs, FieldSession, sessionRule)),
		RiskLevel: raw.riskLevel(errs),
		TenantID:  raw.tenant(errs),
	}
}

// FormatAlert validates the alert subset of a command record.
func (f *Formatter) FormatAlert(raw RawCommand) (*models.CommandAlert, error) {
	errs := &models.ValidationError{Message: "invalid command alert"}
	base := f.base(raw, errs)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return &models.CommandAlert{CommandBase: base}, nil
}

// Format validates a full command record. Read-only fields in raw (id,
// timestamp_display, remote_addr) are ignored.
func (f *Formatter) Format(raw RawCommand) (*models.Command, error) {
	errs := &models.ValidationError{Message: "invalid command record"}
	cmd := f.format(raw, errs)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (f *Formatter) format(raw RawCommand, errs *models.ValidationError) *models.Command {
	cmd := &models.Command{CommandBase: f.base(raw, errs)}
	cmd.Account = TruncateAccount(deref(raw.char(errs, FieldAccount, accountRule)))
	cmd.Output = deref(raw.char(errs, FieldOutput, outputRule))
	if ts, ok := raw.integer(errs, FieldTimestamp); ok {
		cmd.Timestamp = ts
		display := f.Display(ts)
		cmd.TimestampDisplay = &display
	}
	return cmd
}

// FormatBatch validates every record; any failure rejects the whole batch.
// Field errors are prefixed with the record's index, e.g. "2.session".
func (f *Formatter) FormatBatch(raws []RawCommand) ([]*models.Command, error) {
	errs := &models.ValidationError{Message: "invalid command records"}
	cmds := make([]*models.Command, 0, len(raws))
	for i, raw := range raws {
		recErrs := &models.ValidationError{}
		cmds = append(cmds, f.format(raw, recErrs))
		for _, fe := range recErrs.Fields {
			errs.Add(fmt.Sprintf("%d.%s", i, fe.Field), fe.Message)
		}
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// Render fills the derived fields of a stored record.
func (f *Formatter) Render(cmd *models.Command) *models.Command {
	display := f.Display(cmd.Timestamp)
	cmd.TimestampDisplay = &display
	return cmd
}

func (f *Formatter) Display(ts int64) time.Time {
	return time.Unix(ts, 0).In(f.loc)
}
