package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terra-clan/event-wizard/internal/models"
)

// ErrDanglingReferences is returned when the draft references ids that do not exist
var ErrDanglingReferences = errors.New("draft has dangling references")

// DanglingReference describes one id that does not resolve
type DanglingReference struct {
	Entity    string `json:"entity"`
	EntityID  string `json:"entityId"`
	Field     string `json:"field"`
	MissingID string `json:"missingId"`
}

func (r DanglingReference) String() string {
	return fmt.Sprintf("%s %s: %s %q not found", r.Entity, r.EntityID, r.Field, r.MissingID)
}

// ReferenceError lists every dangling reference found in a draft
type ReferenceError struct {
	References []DanglingReference
}

func (e *ReferenceError) Error() string {
	parts := make([]string, len(e.References))
	for i, r := range e.References {
		parts[i] = r.String()
	}
	return fmt.Sprintf("%v: %s", ErrDanglingReferences, strings.Join(parts, "; "))
}

func (e *ReferenceError) Unwrap() error {
	return ErrDanglingReferences
}

// applyStepData replaces the draft slice owned by data's step.
// The draft keeps its own copy so later changes by the caller do not leak in.
func applyStepData(d *models.Draft, data models.StepData) error {
	switch v := data.(type) {
	case *models.BasicDetails:
		d.BasicDetails = v.Clone()
	case models.VenueList:
		d.Venues = v.Clone()
	case models.DateList:
		d.Dates = v.Clone()
	case models.TimeSlotList:
		d.TimeSlots = v.Clone()
	case models.TicketList:
		d.Tickets = v.Clone()
	case models.AssignmentList:
		d.Assignments = v.Clone()
	case *models.Media:
		d.Media = v.Clone()
	case *models.AdditionalInfo:
		d.AdditionalInfo = v.Clone()
	default:
		return fmt.Errorf("unsupported step data %T", data)
	}
	return nil
}

// index resolves ids to entities of a draft
type index struct {
	venues  map[string]models.Venue
	dates   map[string]models.DateSpec
	slots   map[string]models.TimeSlot
	tickets map[string]models.TicketType
}

func newIndex(d *models.Draft) *index {
	ix := &index{
		venues:  make(map[string]models.Venue, len(d.Venues)),
		dates:   make(map[string]models.DateSpec, len(d.Dates)),
		slots:   make(map[string]models.TimeSlot, len(d.TimeSlots)),
		tickets: make(map[string]models.TicketType, len(d.Tickets)),
	}
	for _, v := range d.Venues {
		ix.venues[v.ID] = v
	}
	for _, dt := range d.Dates {
		ix.dates[dt.ID] = dt
	}
	for _, s := range d.TimeSlots {
		ix.slots[s.ID] = s
	}
	for _, t := range d.Tickets {
		ix.tickets[t.ID] = t
	}
	return ix
}

// CheckReferences returns every id reference in d that does not resolve.
// An empty optional reference (e.g. a slot without a date) is not dangling.
func CheckReferences(d *models.Draft) []DanglingReference {
	ix := newIndex(d)
	var refs []DanglingReference

	check := func(entity, entityID, field, id string, ok bool) {
		if id != "" && !ok {
			refs = append(refs, DanglingReference{Entity: entity, EntityID: entityID, Field: field, MissingID: id})
		}
	}

	for _, dt := range d.Dates {
		_, ok := ix.venues[dt.VenueID]
		check("date", dt.ID, "venueId", dt.VenueID, ok)
	}

	for _, s := range d.TimeSlots {
		_, ok := ix.dates[s.DateID]
		check("timeSlot", s.ID, "dateId", s.DateID, ok)
		_, ok = ix.venues[s.VenueID]
		check("timeSlot", s.ID, "venueId", s.VenueID, ok)
	}

	for _, t := range d.Tickets {
		for _, id := range t.DateIDs {
			_, ok := ix.dates[id]
			check("ticket", t.ID, "dateIds", id, ok)
		}
		for _, id := range t.VenueIDs {
			_, ok := ix.venues[id]
			check("ticket", t.ID, "venueIds", id, ok)
		}
		for _, id := range t.TimeSlotIDs {
			_, ok := ix.slots[id]
			check("ticket", t.ID, "timeSlotIds", id, ok)
		}
	}

	for _, a := range d.Assignments {
		_, ok := ix.tickets[a.TicketID]
		check("assignment", a.ID, "ticketId", a.TicketID, ok)
		_, ok = ix.dates[a.DateID]
		check("assignment", a.ID, "dateId", a.DateID, ok)
		_, ok = ix.venues[a.VenueID]
		check("assignment", a.ID, "venueId", a.VenueID, ok)
		_, ok = ix.slots[a.TimeSlotID]
		check("assignment", a.ID, "timeSlotId", a.TimeSlotID, ok)
	}

	return refs
}
