package memory

import (
	"time"

	"supportmatch/internal/models"
)

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneReport(r *models.Report) *models.Report {
	c := *r
	c.UserID = clonePtr(r.UserID)
	c.LastName = clonePtr(r.LastName)
	c.Phone = clonePtr(r.Phone)
	c.Latitude = clonePtr(r.Latitude)
	c.Longitude = clonePtr(r.Longitude)
	c.RequiredServices = cloneStrings(r.RequiredServices)
	return &c
}

func cloneService(s *models.SupportService) *models.SupportService {
	c := *s
	c.ServiceTypes = cloneStrings(s.ServiceTypes)
	if s.Location != nil {
		loc := *s.Location
		loc.Coordinates = append([]float64(nil), s.Location.Coordinates...)
		c.Location = &loc
	}
	return &c
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	c.Breakdown.DistanceKM = clonePtr(m.Breakdown.DistanceKM)
	c.RespondedAt = clonePtr(m.RespondedAt)
	return &c
}

func cloneAppointment(a *models.Appointment) *models.Appointment {
	c := *a
	c.SurvivorID = clonePtr(a.SurvivorID)
	return &c
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
