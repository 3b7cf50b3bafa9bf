package postgres

import (
	"time"

	"supportmatch/internal/models"

	"gorm.io/datatypes"
)

type reportRecord struct {
	ID                  string                      `gorm:"primaryKey;type:varchar(36)"`
	UserID              *string                     `gorm:"type:varchar(64);index:idx_reports_user_created,priority:1"`
	FirstName           string                      `gorm:"type:varchar(100)"`
	LastName            *string                     `gorm:"type:varchar(100)"`
	Email               string                      `gorm:"type:varchar(255)"`
	Phone               *string                     `gorm:"type:varchar(32)"`
	TypeOfIncident      string                      `gorm:"type:varchar(100);not null"`
	IncidentDescription string                      `gorm:"type:text;not null"`
	Urgency             string                      `gorm:"type:varchar(16);not null"`
	RequiredServices    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Latitude            *float64
	Longitude           *float64
	Consent             bool
	ContactPreference   string `gorm:"type:varchar(16)"`
	SubmissionTimestamp time.Time
	IsMatched           bool      `gorm:"column:ismatched;not null;default:false"`
	MatchStatus         string    `gorm:"type:varchar(16);not null;index"`
	MatchVersion        int64     `gorm:"not null;default:0"`
	CreatedAt           time.Time `gorm:"index:idx_reports_user_created,priority:2"`
	UpdatedAt           time.Time
}

func (reportRecord) TableName() string { return "reports" }

type supportServiceRecord struct {
	ID                 string                      `gorm:"primaryKey;type:varchar(36)"`
	UserID             string                      `gorm:"type:varchar(64);not null;index"`
	Name               string                      `gorm:"type:varchar(255);not null"`
	ServiceTypes       datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Latitude           *float64
	Longitude          *float64
	CoverageAreaRadius float64
	Availability       string `gorm:"type:varchar(16)"`
	Helpline           string `gorm:"type:varchar(64)"`
	Email              string `gorm:"type:varchar(255)"`
	PhoneNumber        string `gorm:"type:varchar(32)"`
	Website            string `gorm:"type:varchar(255)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (supportServiceRecord) TableName() string { return "support_services" }

type matchRecord struct {
	ID              string                                    `gorm:"primaryKey;type:varchar(36)"`
	ReportID        string                                    `gorm:"type:varchar(36);not null;index"`
	ServiceID       string                                    `gorm:"type:varchar(36);not null;index:idx_matches_service_status,priority:1"`
	ProviderID      string                                    `gorm:"type:varchar(64);not null"`
	MatchScore      float64                                   `gorm:"not null"`
	MatchStatusType string                                    `gorm:"type:varchar(16);not null;index:idx_matches_service_status,priority:2"`
	Description     string                                    `gorm:"type:text"`
	Breakdown       datatypes.JSONType[models.ScoreBreakdown] `gorm:"column:score_breakdown;type:jsonb"`
	CreatedAt       time.Time                                 `gorm:"index"`
	UpdatedAt       time.Time
	RespondedAt     *time.Time

	Report  *reportRecord         `gorm:"foreignKey:ReportID;constraint:OnDelete:RESTRICT"`
	Service *supportServiceRecord `gorm:"foreignKey:ServiceID;constraint:OnDelete:RESTRICT"`
}

func (matchRecord) TableName() string { return "matched_services" }

type appointmentRecord struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	MatchID         string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_appointment_match"`
	ReportID        string    `gorm:"type:varchar(36);not null"`
	ServiceID       string    `gorm:"type:varchar(36);not null"`
	ProfessionalID  string    `gorm:"type:varchar(64);not null;index"`
	SurvivorID      *string   `gorm:"type:varchar(64);index"`
	AppointmentDate time.Time `gorm:"not null"`
	Status          string    `gorm:"type:varchar(16);not null"`
	Notes           string    `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Match *matchRecord `gorm:"foreignKey:MatchID;constraint:OnDelete:RESTRICT"`
}

func (appointmentRecord) TableName() string { return "appointments" }

// Models lists the tables in dependency order for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&reportRecord{},
		&supportServiceRecord{},
		&matchRecord{},
		&appointmentRecord{},
	}
}

// IndexStatements holds the constraints GORM tags cannot express.
func IndexStatements() []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_report_service
			ON matched_services (report_id, service_id)
			WHERE match_status_type = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_support_services_types
			ON support_services USING GIN (service_types)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_stale_pending
			ON matched_services (created_at)
			WHERE match_status_type = 'pending'`,
	}
}

func newReportRecord(r *models.Report) *reportRecord {
	return &reportRecord{
		ID:                  r.ID,
		UserID:              r.UserID,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Email:               r.Email,
		Phone:               r.Phone,
		TypeOfIncident:      r.TypeOfIncident,
		IncidentDescription: r.IncidentDescription,
		Urgency:             string(r.Urgency),
		RequiredServices:    datatypes.JSONSlice[string](r.RequiredServices),
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		Consent:             r.Consent,
		ContactPreference:   r.ContactPreference,
		SubmissionTimestamp: r.SubmissionTimestamp,
		IsMatched:           r.IsMatched,
		MatchStatus:         string(r.MatchStatus),
		MatchVersion:        r.MatchVersion,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (rec *reportRecord) toModel() *models.Report {
	return &models.Report{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		FirstName:           rec.FirstName,
		LastName:            rec.LastName,
		Email:               rec.Email,
		Phone:               rec.Phone,
		TypeOfIncident:      rec.TypeOfIncident,
		IncidentDescription: rec.IncidentDescription,
		Urgency:             models.Urgency(rec.Urgency),
		RequiredServices:    []string(rec.RequiredServices),
		Latitude:            rec.Latitude,
		Longitude:           rec.Longitude,
		Consent:             rec.Consent,
		ContactPreference:   rec.ContactPreference,
		SubmissionTimestamp: rec.SubmissionTimestamp,
		IsMatched:           rec.IsMatched,
		MatchStatus:         models.ReportMatchStatus(rec.MatchStatus),
		MatchVersion:        rec.MatchVersion,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}

func newSupportServiceRecord(s *models.SupportService) *supportServiceRecord {
	rec := &supportServiceRecord{
		ID:                 s.ID,
		UserID:             s.UserID,
		Name:               s.Name,
		ServiceTypes:       datatypes.JSONSlice[string](s.ServiceTypes),
		CoverageAreaRadius: s.CoverageAreaRadius,
		Availability:       string(s.Availability),
		Helpline:           s.Helpline,
		Email:              s.Email,
		PhoneNumber:        s.PhoneNumber,
		Website:            s.Website,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if s.Location.Valid() {
		lat, lng := s.Location.Latitude(), s.Location.Longitude()
		rec.Latitude = &lat
		rec.Longitude = &lng
	}
	return rec
}

func (rec *supportServiceRecord) toModel() *models.SupportService {
	s := &models.SupportService{
		ID:                 rec.ID,
		UserID:             rec.UserID,
		Name:               rec.Name,
		ServiceTypes:       []string(rec.ServiceTypes),
		CoverageAreaRadius: rec.CoverageAreaRadius,
		Availability:       models.Availability(rec.Availability),
		Helpline:           rec.Helpline,
		Email:              rec.Email,
		PhoneNumber:        rec.PhoneNumber,
		Website:            rec.Website,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if rec.Latitude != nil && rec.Longitude != nil {
		s.Location = models.NewGeoPoint(*rec.Latitude, *rec.Longitude)
	}
	return s
}

func newMatchRecord(m *models.Match) *matchRecord {
	return &matchRecord{
		ID:              m.ID,
		ReportID:        m.ReportID,
		ServiceID:       m.ServiceID,
		ProviderID:      m.ProviderID,
		MatchScore:      m.MatchScore,
		MatchStatusType: string(m.MatchStatusType),
		Description:     m.Description,
		Breakdown:       datatypes.NewJSONType(m.Breakdown),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		RespondedAt:     m.RespondedAt,
	}
}

func (rec *matchRecord) toModel() *models.Match {
	return &models.Match{
		ID:              rec.ID,
		ReportID:        rec.ReportID,
		ServiceID:       rec.ServiceID,
		ProviderID:      rec.ProviderID,
		MatchScore:      rec.MatchScore,
		MatchStatusType: models.MatchStatusType(rec.MatchStatusType),
		Description:     rec.Description,
		Breakdown:       rec.Breakdown.Data(),
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		RespondedAt:     rec.RespondedAt,
	}
}

func newAppointmentRecord(a *models.Appointment) *appointmentRecord {
	return &appointmentRecord{
		ID:              a.ID,
		MatchID:         a.MatchID,
		ReportID:        a.ReportID,
		ServiceID:       a.ServiceID,
		ProfessionalID:  a.ProfessionalID,
		SurvivorID:      a.SurvivorID,
		AppointmentDate: a.AppointmentDate,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (rec *appointmentRecord) toModel() *models.Appointment {
	return &models.Appointment{
		ID:              rec.ID,
		MatchID:         rec.MatchID,
		ReportID:        rec.ReportID,
		ServiceID:       rec.ServiceID,
		ProfessionalID:  rec.ProfessionalID,
		SurvivorID:      rec.SurvivorID,
		AppointmentDate: rec.AppointmentDate,
		Status:          models.AppointmentStatus(rec.Status),
		Notes:           rec.Notes,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}
