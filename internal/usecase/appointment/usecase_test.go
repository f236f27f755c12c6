package appointment

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/audit"
	domain "github.com/TailwagServices/clinic-scheduler/internal/domain/appointment"
	"github.com/TailwagServices/clinic-scheduler/internal/dto"
	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/models"
	"github.com/TailwagServices/clinic-scheduler/internal/notify"
)

// ======================================================
// FAKES
// ======================================================

// fakeRepo keeps appointments in memory with the same atomicity
// contract as the Postgres repository: the conflict check and insert
// run under one lock, and status updates compare-and-swap.
type fakeRepo struct {
	mu sync.Mutex

	orgs         map[uint]models.Organization
	services     map[uint]models.Service
	appointments map[uint]models.Appointment
	nextID       uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orgs:         map[uint]models.Organization{},
		services:     map[uint]models.Service{},
		appointments: map[uint]models.Appointment{},
		nextID:       100,
	}
}

func (r *fakeRepo) GetOrganizationByID(_ context.Context, id uint) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.orgs[id]
	if !ok {
		return nil, httperr.ErrBusinessMsg(httperr.CodeNotFound, "organization not found")
	}
	return &org, nil
}

func (r *fakeRepo) GetService(_ context.Context, organizationID, serviceID uint) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[serviceID]
	if !ok || svc.OrganizationID != organizationID {
		return nil, httperr.ErrBusinessMsg(httperr.CodeNotFound, "service not found for organization")
	}
	return &svc, nil
}

func (r *fakeRepo) CreateIfSlotFree(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, held := range r.appointments {
		if held.OrganizationID == ap.OrganizationID &&
			held.ScheduledAt.Equal(ap.ScheduledAt) &&
			!domain.Status(held.Status).Terminal() {
			return httperr.ErrBusinessMsg(httperr.CodeSlotConflict, "slot is already held by an active appointment")
		}
	}

	r.nextID++
	ap.ID = r.nextID
	ap.CreatedAt = time.Now()
	r.appointments[ap.ID] = *ap
	return nil
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ap, ok := r.appointments[id]
	if !ok {
		return nil, httperr.ErrBusinessMsg(httperr.CodeNotFound, "appointment not found")
	}
	return &ap, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, ap *models.Appointment, prev domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.appointments[ap.ID]
	if !ok || stored.Status != string(prev) {
		return httperr.ErrBusinessMsg(httperr.CodeInvalidTransition, "appointment status changed concurrently")
	}

	stored.Status = ap.Status
	stored.ConfirmedAt = ap.ConfirmedAt
	stored.CancelledAt = ap.CancelledAt
	stored.CompletedAt = ap.CompletedAt
	r.appointments[ap.ID] = stored
	return nil
}

func (r *fakeRepo) ListForRange(
	_ context.Context,
	organizationID uint,
	from, to time.Time,
	serviceID *uint,
) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, ap := range r.appointments {
		if ap.OrganizationID != organizationID {
			continue
		}
		if ap.ScheduledAt.Before(from) || !ap.ScheduledAt.Before(to) {
			continue
		}
		if serviceID != nil && ap.ServiceID != *serviceID {
			continue
		}
		out = append(out, ap)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out, nil
}

var _ domain.Repository = (*fakeRepo)(nil)

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *fakeAuditor) Dispatch(ev audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *fakeNotifier) Dispatch(ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *fakeNotifier) last(t *testing.T) notify.Event {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		t.Fatal("no notification dispatched")
	}
	return n.events[len(n.events)-1]
}

// ======================================================
// FIXTURE
// ======================================================

const (
	orgID       = uint(7)
	ownerID     = uint(70)
	requesterID = uint(42)
	serviceID   = uint(3)
)

var baseNow = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	repo   *fakeRepo
	audit  *fakeAuditor
	notify *fakeNotifier

	create   *CreateAppointment
	confirm  *ConfirmAppointment
	cancel   *CancelAppointment
	complete *CompleteAppointment
	list     *ListAppointments
	calendar *CalendarView
}

func newFixture() *fixture {
	repo := newFakeRepo()
	repo.orgs[orgID] = models.Organization{
		ID:        orgID,
		OwnerID:   ownerID,
		Name:      "Happy Paws Clinic",
		OpenTime:  "08:00",
		CloseTime: "19:00",
		Timezone:  "UTC",
	}
	repo.services[serviceID] = models.Service{
		ID:             serviceID,
		OrganizationID: orgID,
		Name:           "Vaccination",
		Active:         true,
	}
	// A service of a different organization, for the cross-org check.
	repo.services[9] = models.Service{ID: 9, OrganizationID: 8, Name: "Grooming"}

	f := &fixture{
		repo:   repo,
		audit:  &fakeAuditor{},
		notify: &fakeNotifier{},
	}

	f.create = NewCreateAppointment(repo, f.audit, f.notify, nil)
	f.confirm = NewConfirmAppointment(repo, f.audit, f.notify)
	f.cancel = NewCancelAppointment(repo, f.audit, f.notify)
	f.complete = NewCompleteAppointment(repo, f.audit, f.notify)
	f.list = NewListAppointments(repo)
	f.calendar = NewCalendarView(repo)

	f.setNow(baseNow)
	return f
}

func (f *fixture) setNow(now time.Time) {
	clock := func() time.Time { return now }
	f.create.clock = clock
	f.confirm.clock = clock
	f.cancel.clock = clock
	f.complete.clock = clock
}

func (f *fixture) book(t *testing.T, date, hm string) *models.Appointment {
	t.Helper()
	ap, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: orgID,
		ServiceID:      serviceID,
		RequesterID:    requesterID,
		Date:           date,
		Time:           hm,
	})
	if err != nil {
		t.Fatalf("book %s %s: %v", date, hm, err)
	}
	return ap
}

// ======================================================
// CREATE
// ======================================================

func TestCreateAppointment(t *testing.T) {
	f := newFixture()

	ap := f.book(t, "2024-06-10", "09:00")

	if ap.Status != string(domain.StatusPending) {
		t.Fatalf("expected pending, got %s", ap.Status)
	}
	if ap.ID == 0 {
		t.Fatal("id not assigned")
	}
	want := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	if !ap.ScheduledAt.Equal(want) {
		t.Fatalf("scheduled at %s, want %s", ap.ScheduledAt, want)
	}

	ev := f.notify.last(t)
	if ev.AppointmentID != ap.ID || ev.NewStatus != string(domain.StatusPending) {
		t.Fatalf("bad notification event: %+v", ev)
	}
	if ev.RequesterID != requesterID || ev.OrganizationOwnerID != ownerID {
		t.Fatalf("notification parties wrong: %+v", ev)
	}
}

func TestCreateRejectsPastTime(t *testing.T) {
	f := newFixture()
	f.setNow(time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC))

	_, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: orgID,
		ServiceID:      serviceID,
		RequesterID:    requesterID,
		Date:           "2024-06-10",
		Time:           "09:00",
	})
	if !httperr.IsBusiness(err, httperr.CodeValidation) {
		t.Fatalf("expected validation_error, got %v", err)
	}

	// Exactly now is not strictly in the future either.
	_, _, err = f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: orgID,
		ServiceID:      serviceID,
		RequesterID:    requesterID,
		Date:           "2024-06-10",
		Time:           "10:00",
	})
	if !httperr.IsBusiness(err, httperr.CodeValidation) {
		t.Fatalf("expected validation_error for now-exact time, got %v", err)
	}
}

func TestCreateRejectsOutsideOpeningHours(t *testing.T) {
	f := newFixture()
	f.setNow(time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC))

	for _, hm := range []string{"07:30", "19:00", "21:00"} {
		_, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
			OrganizationID: orgID,
			ServiceID:      serviceID,
			RequesterID:    requesterID,
			Date:           "2024-06-10",
			Time:           hm,
		})
		if !httperr.IsBusiness(err, httperr.CodeValidation) {
			t.Errorf("%s: expected validation_error, got %v", hm, err)
		}
	}
}

func TestCreateRejectsMisalignedTime(t *testing.T) {
	f := newFixture()

	_, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: orgID,
		ServiceID:      serviceID,
		RequesterID:    requesterID,
		Date:           "2024-06-10",
		Time:           "09:10",
	})
	if !httperr.IsBusiness(err, httperr.CodeValidation) {
		t.Fatalf("expected validation_error, got %v", err)
	}
}

func TestCreateRejectsCrossOrganizationService(t *testing.T) {
	f := newFixture()

	_, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: orgID,
		ServiceID:      9,
		RequesterID:    requesterID,
		Date:           "2024-06-10",
		Time:           "09:00",
	})
	if !httperr.IsBusiness(err, httperr.CodeValidation) {
		t.Fatalf("expected validation_error, got %v", err)
	}
}

func TestCreateUnknownOrganization(t *testing.T) {
	f := newFixture()

	_, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: 999,
		ServiceID:      serviceID,
		RequesterID:    requesterID,
		Date:           "2024-06-10",
		Time:           "09:00",
	})
	if !httperr.IsBusiness(err, httperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestCreateSlotConflictAndRebookAfterCancel(t *testing.T) {
	f := newFixture()

	first := f.book(t, "2024-06-10", "09:00")
	if _, err := f.confirm.Execute(context.Background(), first.ID, ownerID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// The slot is held by a confirmed appointment.
	_, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: orgID,
		ServiceID:      serviceID,
		RequesterID:    55,
		Date:           "2024-06-10",
		Time:           "09:00",
	})
	if !httperr.IsBusiness(err, httperr.CodeSlotConflict) {
		t.Fatalf("expected slot_conflict, got %v", err)
	}

	// Once cancelled it no longer blocks the slot.
	if _, err := f.cancel.Execute(context.Background(), first.ID, requesterID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
		OrganizationID: orgID,
		ServiceID:      serviceID,
		RequesterID:    55,
		Date:           "2024-06-10",
		Time:           "09:00",
	})
	if err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("rebooking must create a new record")
	}
}

func TestCreateConcurrentSingleWinner(t *testing.T) {
	f := newFixture()

	const attempts = 16

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, err := f.create.Execute(context.Background(), CreateAppointmentInput{
				OrganizationID: orgID,
				ServiceID:      serviceID,
				RequesterID:    uint(100 + n),
				Date:           "2024-06-10",
				Time:           "09:00",
			})
			results <- err
		}(i)
	}

	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case httperr.IsBusiness(err, httperr.CodeSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

// ======================================================
// TRANSITIONS
// ======================================================

func TestConfirmByOwnerThenReplay(t *testing.T) {
	f := newFixture()
	ap := f.book(t, "2024-06-10", "09:00")

	confirmed, err := f.confirm.Execute(context.Background(), ap.ID, ownerID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != string(domain.StatusConfirmed) {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	// The same call after the first commits observes the changed status.
	_, err = f.confirm.Execute(context.Background(), ap.ID, ownerID)
	if !httperr.IsBusiness(err, httperr.CodeInvalidTransition) {
		t.Fatalf("expected invalid_transition, got %v", err)
	}
}

func TestConfirmUnauthorized(t *testing.T) {
	f := newFixture()
	ap := f.book(t, "2024-06-10", "09:00")

	_, err := f.confirm.Execute(context.Background(), ap.ID, requesterID)
	if !httperr.IsBusiness(err, httperr.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture()

	// The requester may cancel their own pending appointment.
	ap := f.book(t, "2024-06-10", "09:00")
	if _, err := f.cancel.Execute(context.Background(), ap.ID, requesterID); err != nil {
		t.Fatalf("cancel by requester: %v", err)
	}

	// The owner may cancel a confirmed appointment.
	ap = f.book(t, "2024-06-10", "10:00")
	if _, err := f.confirm.Execute(context.Background(), ap.ID, ownerID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.cancel.Execute(context.Background(), ap.ID, ownerID); err != nil {
		t.Fatalf("cancel by owner: %v", err)
	}

	// Anyone else may not.
	ap = f.book(t, "2024-06-10", "11:00")
	_, err := f.cancel.Execute(context.Background(), ap.ID, 9999)
	if !httperr.IsBusiness(err, httperr.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCompleteTemporalGateAndReplay(t *testing.T) {
	f := newFixture()

	ap := f.book(t, "2024-06-10", "09:00")
	if _, err := f.confirm.Execute(context.Background(), ap.ID, ownerID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// 08:59 is before the slot starts.
	f.setNow(time.Date(2024, 6, 10, 8, 59, 0, 0, time.UTC))
	_, err := f.complete.Execute(context.Background(), ap.ID, ownerID)
	if !httperr.IsBusiness(err, httperr.CodeTooEarly) {
		t.Fatalf("expected too_early, got %v", err)
	}

	// 09:01 succeeds, exactly once.
	f.setNow(time.Date(2024, 6, 10, 9, 1, 0, 0, time.UTC))
	done, err := f.complete.Execute(context.Background(), ap.ID, ownerID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != string(domain.StatusCompleted) {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	_, err = f.complete.Execute(context.Background(), ap.ID, ownerID)
	if !httperr.IsBusiness(err, httperr.CodeInvalidTransition) {
		t.Fatalf("expected invalid_transition on replay, got %v", err)
	}
}

func TestCompleteRequiresOwner(t *testing.T) {
	f := newFixture()

	ap := f.book(t, "2024-06-10", "09:00")
	if _, err := f.confirm.Execute(context.Background(), ap.ID, ownerID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	f.setNow(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC))
	_, err := f.complete.Execute(context.Background(), ap.ID, requesterID)
	if !httperr.IsBusiness(err, httperr.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestTransitionUnknownAppointment(t *testing.T) {
	f := newFixture()

	_, err := f.confirm.Execute(context.Background(), 12345, ownerID)
	if !httperr.IsBusiness(err, httperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

// ======================================================
// QUERY
// ======================================================

func TestListAppointmentsRange(t *testing.T) {
	f := newFixture()

	a := f.book(t, "2024-06-10", "09:00")
	b := f.book(t, "2024-06-11", "10:00")
	f.book(t, "2024-06-20", "09:00") // outside the queried range

	got, err := f.list.Execute(context.Background(), orgID, "2024-06-10", "2024-06-11", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(got))
	}
	if got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatal("list not ordered by scheduled time")
	}
}

func TestListAppointmentsBadRange(t *testing.T) {
	f := newFixture()

	cases := [][2]string{
		{"2024-06-11", "2024-06-10"}, // inverted
		{"not-a-date", "2024-06-10"},
		{"2024-01-01", "2024-12-31"}, // too large
	}

	for _, c := range cases {
		_, err := f.list.Execute(context.Background(), orgID, c[0], c[1], nil)
		if !httperr.IsBusiness(err, httperr.CodeValidation) {
			t.Errorf("range %v: expected validation_error, got %v", c, err)
		}
	}
}

// calendarSlot digs the slot out of the rendered grid; fails the test
// when the day or hour row is absent.
func calendarSlot(t *testing.T, grid *dto.CalendarDTO, date string, hour, minute int) dto.CalendarSlotDTO {
	t.Helper()
	for _, day := range grid.Days {
		if day.Date != date {
			continue
		}
		for _, cell := range day.Hours {
			if cell.Hour != hour {
				continue
			}
			for _, slot := range cell.Slots {
				if slot.Minute == minute {
					return slot
				}
			}
		}
	}
	t.Fatalf("no cell at %s %02d:%02d", date, hour, minute)
	return dto.CalendarSlotDTO{}
}

func TestCalendarView(t *testing.T) {
	f := newFixture()

	ap := f.book(t, "2024-06-10", "09:00")

	grid, err := f.calendar.Execute(context.Background(), CalendarViewInput{
		OrganizationID: orgID,
		FromDate:       "2024-06-10",
		ToDate:         "2024-06-11",
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}

	// Opening hours 08:00-19:00 render rows 8..18.
	if grid.HourFrom != 8 || grid.HourTo != 18 {
		t.Fatalf("hour window %d..%d, want 8..18", grid.HourFrom, grid.HourTo)
	}
	if len(grid.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(grid.Days))
	}

	day := grid.Days[0]
	if day.Date != "2024-06-10" {
		t.Fatalf("first day %s", day.Date)
	}

	if slot := calendarSlot(t, grid, "2024-06-10", 9, 0); slot.Appointment == nil || slot.Appointment.ID != ap.ID {
		t.Fatal("appointment missing from its slot")
	}
	for _, cell := range day.Hours {
		for _, slot := range cell.Slots {
			if slot.Appointment != nil && (cell.Hour != 9 || slot.Minute != 0) {
				t.Fatalf("unexpected appointment at %02d:%02d", cell.Hour, slot.Minute)
			}
		}
	}
}

func TestCalendarViewShowsBothHalfHourBookings(t *testing.T) {
	f := newFixture()

	first := f.book(t, "2024-06-10", "09:00")
	second := f.book(t, "2024-06-10", "09:30")

	grid, err := f.calendar.Execute(context.Background(), CalendarViewInput{
		OrganizationID: orgID,
		FromDate:       "2024-06-10",
		ToDate:         "2024-06-10",
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}

	if slot := calendarSlot(t, grid, "2024-06-10", 9, 0); slot.Appointment == nil || slot.Appointment.ID != first.ID {
		t.Fatal("09:00 booking missing from the calendar")
	}
	if slot := calendarSlot(t, grid, "2024-06-10", 9, 30); slot.Appointment == nil || slot.Appointment.ID != second.ID {
		t.Fatal("09:30 booking missing from the calendar")
	}
}

func TestCalendarViewNonUTCOrganization(t *testing.T) {
	f := newFixture()

	org := f.repo.orgs[orgID]
	org.Timezone = "America/Sao_Paulo"
	f.repo.orgs[orgID] = org

	// The driver hands the instant back in UTC; 09:00 in Sao Paulo is
	// 12:00 UTC in June.
	f.repo.appointments[500] = models.Appointment{
		ID:             500,
		OrganizationID: orgID,
		ServiceID:      serviceID,
		RequesterID:    requesterID,
		ScheduledAt:    time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
		Status:         string(domain.StatusConfirmed),
	}

	grid, err := f.calendar.Execute(context.Background(), CalendarViewInput{
		OrganizationID: orgID,
		FromDate:       "2024-06-10",
		ToDate:         "2024-06-10",
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}

	if slot := calendarSlot(t, grid, "2024-06-10", 9, 0); slot.Appointment == nil || slot.Appointment.ID != 500 {
		t.Fatal("booking not placed on the organization's clock")
	}
	if slot := calendarSlot(t, grid, "2024-06-10", 12, 0); slot.Appointment != nil {
		t.Fatal("booking placed at its UTC hour instead of the local one")
	}
}

func TestCalendarViewInvalidHourWindow(t *testing.T) {
	f := newFixture()

	from, to := 18, 9
	_, err := f.calendar.Execute(context.Background(), CalendarViewInput{
		OrganizationID: orgID,
		FromDate:       "2024-06-10",
		ToDate:         "2024-06-10",
		HourFrom:       &from,
		HourTo:         &to,
	})
	if !httperr.IsBusiness(err, httperr.CodeValidation) {
		t.Fatalf("expected validation_error, got %v", err)
	}
}
