package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/event-wizard/internal/models"
)

// Common editor errors
var (
	ErrValidation     = errors.New("validation failed")
	ErrInvalidPayload = errors.New("invalid step payload")

	// ErrIndexOutOfRange is returned by Move for an index outside the list
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ValidationError is a step-local validation failure. It carries the toast
// shown to the user; the user stays on the same step.
type ValidationError struct {
	Step        models.Step
	Title       string
	Description string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Description)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Toast returns the notification describing the failure
func (e *ValidationError) Toast() models.Toast {
	return models.Toast{
		Title:       e.Title,
		Description: e.Description,
		Severity:    models.SeverityDestructive,
	}
}

func invalid(step models.Step, title, format string, args ...any) *ValidationError {
	return &ValidationError{Step: step, Title: title, Description: fmt.Sprintf(format, args...)}
}

// Catalog answers membership questions for catalog-backed fields
type Catalog interface {
	HasCategory(id string) bool
	HasProhibitedItem(id string) bool
}

// Editors implements the per-step editor contract: normalise the working
// copy of a step, validate it against the draft, and hand back a slice that
// is safe to pass to Controller.OnStepSubmit.
type Editors struct {
	validate *validator.Validate
	catalog  Catalog
}

// NewEditors creates the step editors. catalog may be nil, in which case
// categories and prohibited items are not checked against it.
func NewEditors(catalog Catalog) *Editors {
	return &Editors{
		validate: newValidator(),
		catalog:  catalog,
	}
}

var (
	hhmmPattern  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(phoneStrip.Replace(fl.Field().String()))
	})

	return v
}

// DecodeStepData parses the raw JSON field-group of step
func DecodeStepData(step models.Step, raw json.RawMessage) (models.StepData, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body for %s", ErrInvalidPayload, step)
	}

	var data models.StepData
	switch step {
	case models.StepBasicDetails:
		data = &models.BasicDetails{}
	case models.StepVenues:
		data = &models.VenueList{}
	case models.StepDates:
		data = &models.DateList{}
	case models.StepTimes:
		data = &models.TimeSlotList{}
	case models.StepTickets:
		data = &models.TicketList{}
	case models.StepAssignTickets:
		data = &models.AssignmentList{}
	case models.StepMedia:
		data = &models.Media{}
	case models.StepAdditionalInfo:
		data = &models.AdditionalInfo{}
	case models.StepReview:
		return nil, ErrReviewRequiresConfirm
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// List steps are decoded through a pointer; hand back the value
	switch v := data.(type) {
	case *models.VenueList:
		return *v, nil
	case *models.DateList:
		return *v, nil
	case *models.TimeSlotList:
		return *v, nil
	case *models.TicketList:
		return *v, nil
	case *models.AssignmentList:
		return *v, nil
	}
	return data, nil
}

// Prepare normalises and validates data against the current draft.
// The draft is only read. On failure a *ValidationError is returned.
func (e *Editors) Prepare(d *models.Draft, data models.StepData) (models.StepData, error) {
	switch v := data.(type) {
	case *models.BasicDetails:
		return e.prepareBasicDetails(v)
	case models.VenueList:
		return e.prepareVenues(v)
	case models.DateList:
		return e.prepareDates(d, v)
	case models.TimeSlotList:
		return e.prepareTimeSlots(d, v)
	case models.TicketList:
		return e.prepareTickets(d, v)
	case models.AssignmentList:
		return e.prepareAssignments(d, v)
	case *models.Media:
		return e.prepareMedia(v)
	case *models.AdditionalInfo:
		return e.prepareAdditionalInfo(v)
	case nil:
		return nil, fmt.Errorf("%w: no data", ErrInvalidPayload)
	}
	return nil, fmt.Errorf("%w: unsupported step data %T", ErrInvalidPayload, data)
}

func (e *Editors) prepareBasicDetails(in *models.BasicDetails) (models.StepData, error) {
	b := in.Clone()
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	b.OrganizerName = strings.TrimSpace(b.OrganizerName)
	b.OrganizerEmail = strings.TrimSpace(b.OrganizerEmail)
	b.Tags = uniqueTags(b.Tags)

	if err := e.structErr(models.StepBasicDetails, "Invalid basic details", b); err != nil {
		return nil, err
	}
	if e.catalog != nil && !e.catalog.HasCategory(b.Category) {
		return nil, invalid(models.StepBasicDetails, "Invalid basic details", "unknown category %q", b.Category)
	}
	return b, nil
}

// uniqueTags trims tags and drops repeats, keeping first occurrence order
func uniqueTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func (e *Editors) prepareVenues(in models.VenueList) (models.StepData, error) {
	const title = "Invalid venues"
	if len(in) == 0 {
		return nil, invalid(models.StepVenues, "No venues added", "add at least one venue before continuing")
	}

	venues := in.Clone()
	if err := uniqueIDs(models.StepVenues, title, "venue", venues, func(v models.Venue) string { return v.ID }); err != nil {
		return nil, err
	}

	for i := range venues {
		v := &venues[i]
		v.Name = strings.TrimSpace(v.Name)
		if strings.EqualFold(v.Name, models.TBAVenueName) || strings.EqualFold(v.Name, "TBD") {
			v.IsTBA = true
		}
		if v.IsTBA {
			v.Name = models.TBAVenueName
		}
		if err := e.structErr(models.StepVenues, title, v); err != nil {
			return nil, err
		}
		// TBA venues are constrained by city only
		if v.IsTBA {
			continue
		}
		switch {
		case v.Name == "":
			return nil, invalid(models.StepVenues, title, "venue %s: name is required", v.ID)
		case strings.TrimSpace(v.Address) == "":
			return nil, invalid(models.StepVenues, title, "venue %s: address is required", v.ID)
		case strings.TrimSpace(v.Country) == "":
			return nil, invalid(models.StepVenues, title, "venue %s: country is required", v.ID)
		}
		if (v.Latitude == nil) != (v.Longitude == nil) {
			return nil, invalid(models.StepVenues, title, "venue %s: latitude and longitude must be set together", v.ID)
		}
	}
	return venues, nil
}

func (e *Editors) prepareDates(d *models.Draft, in models.DateList) (models.StepData, error) {
	const title = "Invalid dates"
	if len(in) == 0 {
		return nil, invalid(models.StepDates, "No dates added", "add at least one date before continuing")
	}

	dates := in.Clone()
	if err := uniqueIDs(models.StepDates, title, "date", dates, func(dt models.DateSpec) string { return dt.ID }); err != nil {
		return nil, err
	}

	ix := newIndex(d)
	for i := range dates {
		dt := &dates[i]
		if err := e.structErr(models.StepDates, title, dt); err != nil {
			return nil, err
		}
		switch dt.Kind {
		case models.DateSingle:
			dt.End = nil
			dt.Recurrence = nil
		case models.DateRange, models.DateRecurring:
			if dt.End == nil {
				return nil, invalid(models.StepDates, title, "date %s: end date is required", dt.ID)
			}
			if !dt.End.After(dt.Start) {
				return nil, invalid(models.StepDates, title, "date %s: end date must be after start date", dt.ID)
			}
		}
		if dt.Kind == models.DateRecurring {
			if dt.Recurrence == nil {
				return nil, invalid(models.StepDates, title, "date %s: recurrence rule is required", dt.ID)
			}
			if err := e.structErr(models.StepDates, title, dt.Recurrence); err != nil {
				return nil, err
			}
		} else {
			dt.Recurrence = nil
		}
		if dt.VenueID != "" {
			if _, ok := ix.venues[dt.VenueID]; !ok {
				return nil, invalid(models.StepDates, title, "date %s: venue %q does not exist", dt.ID, dt.VenueID)
			}
		}
	}
	return dates, nil
}

func (e *Editors) prepareTimeSlots(d *models.Draft, in models.TimeSlotList) (models.StepData, error) {
	const title = "Invalid time slots"
	if len(in) == 0 {
		return nil, invalid(models.StepTimes, "No time slots added", "add at least one time slot before continuing")
	}

	slots := in.Clone()
	if err := uniqueIDs(models.StepTimes, title, "time slot", slots, func(s models.TimeSlot) string { return s.ID }); err != nil {
		return nil, err
	}

	ix := newIndex(d)
	for i := range slots {
		s := &slots[i]
		if err := e.structErr(models.StepTimes, title, s); err != nil {
			return nil, err
		}
		start, _ := time.Parse("15:04", s.StartTime)
		end, _ := time.Parse("15:04", s.EndTime)
		if !end.After(start) {
			return nil, invalid(models.StepTimes, title, "time slot %s: end time must be after start time", s.ID)
		}
		if s.DateID != "" {
			if _, ok := ix.dates[s.DateID]; !ok {
				return nil, invalid(models.StepTimes, title, "time slot %s: date %q does not exist", s.ID, s.DateID)
			}
		}
		if s.VenueID != "" {
			if _, ok := ix.venues[s.VenueID]; !ok {
				return nil, invalid(models.StepTimes, title, "time slot %s: venue %q does not exist", s.ID, s.VenueID)
			}
		}
	}
	return slots, nil
}

func (e *Editors) prepareTickets(d *models.Draft, in models.TicketList) (models.StepData, error) {
	const title = "Invalid tickets"
	if len(in) == 0 {
		return nil, invalid(models.StepTickets, "No tickets added", "add at least one ticket before continuing")
	}

	tickets := in.Clone()
	if err := uniqueIDs(models.StepTickets, title, "ticket", tickets, func(t models.TicketType) string { return t.ID }); err != nil {
		return nil, err
	}

	ix := newIndex(d)
	for i := range tickets {
		t := &tickets[i]
		t.Name = strings.TrimSpace(t.Name)
		t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
		if err := e.structErr(models.StepTickets, title, t); err != nil {
			return nil, err
		}

		switch t.Pricing {
		case models.TicketFree:
			if t.Price != 0 {
				return nil, invalid(models.StepTickets, title, "ticket %s: free tickets cannot have a price", t.Name)
			}
			t.Currency = ""
		case models.TicketPaid:
			if t.Currency == "" {
				return nil, invalid(models.StepTickets, title, "ticket %s: currency is required for paid tickets", t.Name)
			}
		}

		if err := checkSelection(title, t.Name, "date", t.IsAllDates, t.DateIDs, len(d.Dates), func(id string) bool { _, ok := ix.dates[id]; return ok }); err != nil {
			return nil, err
		}
		if err := checkSelection(title, t.Name, "venue", t.IsAllVenues, t.VenueIDs, len(d.Venues), func(id string) bool { _, ok := ix.venues[id]; return ok }); err != nil {
			return nil, err
		}
		if err := checkSelection(title, t.Name, "time slot", t.IsAllTimeSlots, t.TimeSlotIDs, len(d.TimeSlots), func(id string) bool { _, ok := ix.slots[id]; return ok }); err != nil {
			return nil, err
		}
		if t.IsAllDates {
			t.DateIDs = nil
		}
		if t.IsAllVenues {
			t.VenueIDs = nil
		}
		if t.IsAllTimeSlots {
			t.TimeSlotIDs = nil
		}
	}
	return tickets, nil
}

// checkSelection enforces that a ticket not applying to "all" of a kind
// selects at least one existing entity, whenever any exist
func checkSelection(title, ticket, kind string, all bool, ids []string, available int, exists func(string) bool) error {
	if all {
		return nil
	}
	if len(ids) == 0 && available > 0 {
		return invalid(models.StepTickets, title, "ticket %s: select at least one %s", ticket, kind)
	}
	for _, id := range ids {
		if !exists(id) {
			return invalid(models.StepTickets, title, "ticket %s: %s %q does not exist", ticket, kind, id)
		}
	}
	return nil
}

func (e *Editors) prepareAssignments(d *models.Draft, in models.AssignmentList) (models.StepData, error) {
	const title = "Invalid ticket assignments"
	if len(in) == 0 {
		return nil, invalid(models.StepAssignTickets, "No tickets assigned", "assign at least one ticket before continuing")
	}

	assignments := in.Clone()
	if err := uniqueIDs(models.StepAssignTickets, title, "assignment", assignments, func(a models.TicketAssignment) string { return a.ID }); err != nil {
		return nil, err
	}

	previous := make(map[string]models.TicketAssignment, len(d.Assignments))
	for _, a := range d.Assignments {
		previous[a.ID] = a
	}

	ix := newIndex(d)
	for i := range assignments {
		a := &assignments[i]
		if err := e.structErr(models.StepAssignTickets, title, a); err != nil {
			return nil, err
		}
		ticket, ok := ix.tickets[a.TicketID]
		if !ok {
			return nil, invalid(models.StepAssignTickets, title, "assignment %s: ticket %q does not exist", a.ID, a.TicketID)
		}
		if _, ok := ix.dates[a.DateID]; !ok {
			return nil, invalid(models.StepAssignTickets, title, "assignment %s: date %q does not exist", a.ID, a.DateID)
		}
		if _, ok := ix.venues[a.VenueID]; !ok {
			return nil, invalid(models.StepAssignTickets, title, "assignment %s: venue %q does not exist", a.ID, a.VenueID)
		}
		if _, ok := ix.slots[a.TimeSlotID]; !ok {
			return nil, invalid(models.StepAssignTickets, title, "assignment %s: time slot %q does not exist", a.ID, a.TimeSlotID)
		}
		// A snapshot survives only while the assignment keeps its ticket;
		// snapshots sent by the client are never trusted
		if prev, ok := previous[a.ID]; ok && prev.TicketID == a.TicketID && prev.Snapshot != nil {
			snap := *prev.Snapshot
			a.Snapshot = &snap
		} else {
			snap := models.SnapshotOf(ticket)
			a.Snapshot = &snap
		}
	}
	return assignments, nil
}

func (e *Editors) prepareMedia(in *models.Media) (models.StepData, error) {
	const title = "Invalid media"
	m := in.Clone()
	if m.CardImage == nil {
		return nil, invalid(models.StepMedia, "No card image", "upload a card image before continuing")
	}
	if err := e.structErr(models.StepMedia, title, m); err != nil {
		return nil, err
	}
	if err := uniqueIDs(models.StepMedia, title, "gallery image", m.Gallery, func(r models.MediaRef) string { return r.ID }); err != nil {
		return nil, err
	}
	return m, nil
}

func (e *Editors) prepareAdditionalInfo(in *models.AdditionalInfo) (models.StepData, error) {
	const title = "Invalid additional info"
	info := in.Clone()
	if err := e.structErr(models.StepAdditionalInfo, title, info); err != nil {
		return nil, err
	}
	if e.catalog != nil {
		for _, item := range info.ProhibitedItems {
			if !e.catalog.HasProhibitedItem(item) {
				return nil, invalid(models.StepAdditionalInfo, title, "unknown prohibited item %q", item)
			}
		}
	}
	if err := uniqueIDs(models.StepAdditionalInfo, title, "sponsor", info.Sponsors, func(s models.Sponsor) string { return s.ID }); err != nil {
		return nil, err
	}
	rankSponsors(info.Sponsors)
	return info, nil
}

// Move returns a copy of list with the element at from moved to position
// to. list itself is not modified.
func Move[T any](list []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(list) {
		return nil, fmt.Errorf("%w: from %d, length %d", ErrIndexOutOfRange, from, len(list))
	}
	if to < 0 || to >= len(list) {
		return nil, fmt.Errorf("%w: to %d, length %d", ErrIndexOutOfRange, to, len(list))
	}

	out := make([]T, 0, len(list))
	moved := list[from]
	for i, v := range list {
		if i != from {
			out = append(out, v)
		}
	}
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out, nil
}

// MoveSponsor reorders sponsors by drag and drop and re-ranks them so
// priority follows the new order
func MoveSponsor(sponsors []models.Sponsor, from, to int) ([]models.Sponsor, error) {
	out, err := Move(sponsors, from, to)
	if err != nil {
		return nil, err
	}
	rankSponsors(out)
	return out, nil
}

// rankSponsors sets priority to the 1-based list position
func rankSponsors(sponsors []models.Sponsor) {
	for i := range sponsors {
		sponsors[i].Priority = i + 1
	}
}

// structErr runs tag validation and converts the first failure to a ValidationError
func (e *Editors) structErr(step models.Step, title string, v any) error {
	err := e.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalid(step, title, "%v", err)
	}
	return invalid(step, title, "%s", describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must be a valid phone number"
	case "hhmm":
		return field + " must be a time in HH:MM format"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "latitude", "longitude":
		return field + " is out of range"
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func uniqueIDs[T any](step models.Step, title, kind string, items []T, id func(T) string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		key := id(it)
		if key == "" {
			continue
		}
		if seen[key] {
			return invalid(step, title, "duplicate %s id %q", kind, key)
		}
		seen[key] = true
	}
	return nil
}
