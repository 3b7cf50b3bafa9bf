package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"supportmatch/internal/config"
	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/repositories/memory"
	"supportmatch/pkg/cache"
	"supportmatch/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.MatchEvent
	err    error
}

func (p *recordingPublisher) PublishMatchEvent(_ context.Context, event *models.MatchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) count(eventType models.MatchEventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

// Fault injection decorators.

type failingCatalogRepo struct {
	interfaces.SupportServiceRepository
}

func (failingCatalogRepo) FindByServiceTypes(context.Context, []string) ([]*models.SupportService, error) {
	return nil, errors.New("connection refused")
}

type failingCreateMatchRepo struct {
	interfaces.MatchRepository
}

func (failingCreateMatchRepo) CreateMany(context.Context, []*models.Match) error {
	return errors.New("disk full")
}

type failingAppointmentRepo struct {
	interfaces.AppointmentRepository
}

func (failingAppointmentRepo) Create(context.Context, *models.Appointment) error {
	return errors.New("write timeout")
}

// hookedCatalogRepo runs hook once, on the first catalog read, to let a test
// interleave another writer between a ranking pass's report read and its write.
type hookedCatalogRepo struct {
	interfaces.SupportServiceRepository
	once sync.Once
	hook func()
}

func (r *hookedCatalogRepo) FindByServiceTypes(ctx context.Context, tags []string) ([]*models.SupportService, error) {
	r.once.Do(r.hook)
	return r.SupportServiceRepository.FindByServiceTypes(ctx, tags)
}

// conflictingReportRepo fails the first n versioned updates as if another
// writer had bumped the version.
type conflictingReportRepo struct {
	interfaces.ReportRepository
	mu        sync.Mutex
	remaining int
}

func (r *conflictingReportRepo) UpdateMatchState(ctx context.Context, id string, version int64, isMatched bool, status models.ReportMatchStatus) error {
	r.mu.Lock()
	if r.remaining != 0 {
		if r.remaining > 0 {
			r.remaining--
		}
		r.mu.Unlock()
		return interfaces.ErrConflict
	}
	r.mu.Unlock()
	return r.ReportRepository.UpdateMatchState(ctx, id, version, isMatched, status)
}

type fixture struct {
	store        *memory.Store
	reports      interfaces.ReportRepository
	services     interfaces.SupportServiceRepository
	matches      interfaces.MatchRepository
	appointments interfaces.AppointmentRepository
	locker       *cache.LocalLocker
	publisher    *recordingPublisher
	config       *config.MatchingConfig
	log          *logger.Logger
}

func testMatchingConfig() *config.MatchingConfig {
	return &config.MatchingConfig{
		TopK:                   3,
		MinScore:               0,
		WeightTagOverlap:       0.5,
		WeightUrgency:          0.2,
		WeightProximity:        0.3,
		NeutralProximity:       0.5,
		LockTTL:                5 * time.Second,
		LockWait:               2 * time.Second,
		MaxRetries:             3,
		SweepInterval:          time.Minute,
		AppointmentDefaultLead: 48 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return &fixture{
		store:        store,
		reports:      memory.NewReportRepository(store),
		services:     memory.NewSupportServiceRepository(store),
		matches:      memory.NewMatchRepository(store),
		appointments: memory.NewAppointmentRepository(store),
		locker:       cache.NewLocalLocker(),
		publisher:    &recordingPublisher{},
		config:       testMatchingConfig(),
		log:          logger.NewNop(),
	}
}

func (f *fixture) catalog() CatalogService {
	return NewCatalogService(f.services)
}

func (f *fixture) matcher() MatchingService {
	return NewMatchingService(f.config, f.reports, f.matches, f.store, f.catalog(), f.locker, f.publisher, f.log)
}

func (f *fixture) provisioner() AppointmentProvisioner {
	return NewAppointmentProvisioner(f.reports, f.matches, f.appointments, f.store, f.config.AppointmentDefaultLead)
}

func (f *fixture) matchService() MatchService {
	return NewMatchService(f.reports, f.services, f.matches, f.store, f.provisioner(), f.publisher, f.log)
}

func (f *fixture) reportService() ReportService {
	return NewReportService(f.reports, f.matches, f.matcher(), f.log)
}

func (f *fixture) addService(t *testing.T, id, owner string, tags []string, availability models.Availability, location *models.GeoPoint, radius float64) *models.SupportService {
	t.Helper()
	service := &models.SupportService{
		ID:                 id,
		UserID:             owner,
		Name:               "Service " + id,
		ServiceTypes:       tags,
		Availability:       availability,
		Location:           location,
		CoverageAreaRadius: radius,
	}
	if err := f.services.Create(context.Background(), service); err != nil {
		t.Fatalf("Create(service %s) error = %v", id, err)
	}
	return service
}

func (f *fixture) addReport(t *testing.T, owner string, tags []string, urgency models.Urgency) *models.Report {
	t.Helper()
	report := &models.Report{
		FirstName:           "Anonymous",
		TypeOfIncident:      "harassment",
		IncidentDescription: "details",
		Urgency:             urgency,
		RequiredServices:    tags,
		Consent:             true,
		ContactPreference:   "email",
		MatchStatus:         models.ReportMatchStatusPending,
	}
	if owner != "" {
		report.UserID = &owner
	}
	if err := f.reports.Create(context.Background(), report); err != nil {
		t.Fatalf("Create(report) error = %v", err)
	}
	return report
}

func (f *fixture) getReport(t *testing.T, id string) *models.Report {
	t.Helper()
	report, err := f.reports.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(report) error = %v", err)
	}
	return report
}

func (f *fixture) matchesByStatus(t *testing.T, reportID string, status models.MatchStatusType) []*models.Match {
	t.Helper()
	all, err := f.matches.GetByReport(context.Background(), reportID)
	if err != nil {
		t.Fatalf("GetByReport() error = %v", err)
	}
	var out []*models.Match
	for _, m := range all {
		if m.MatchStatusType == status {
			out = append(out, m)
		}
	}
	return out
}
