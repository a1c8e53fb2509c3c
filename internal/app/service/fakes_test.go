package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reservation-service/internal/domain"
)

// fakeReservationRepo is an in-memory domain.ReservationRepository.
type fakeReservationRepo struct {
	mu   sync.Mutex
	rows map[string]domain.Reservation

	insertErr error
	updateErr error
	deleteErr error
	storeErr  error

	// storeDelay is waited (or the context, whichever first) by every read.
	storeDelay time.Duration
	// overlapHook overrides HasOverlap results by call number, starting at 1.
	overlapHook  func(call int) bool
	overlapCalls int
	deleteCalls  int
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{rows: make(map[string]domain.Reservation)}
}

func (f *fakeReservationRepo) seed(customerID, arrival, departure string) domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := domain.Reservation{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		ArrivalDate:   domain.MustParseDate(arrival),
		DepartureDate: domain.MustParseDate(departure),
	}
	f.rows[res.ID] = res

	return res
}

func (f *fakeReservationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.rows)
}

func (f *fakeReservationRepo) get(id string) (domain.Reservation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rows[id]
	return r, ok
}

func (f *fakeReservationRepo) wait(ctx context.Context) error {
	if f.storeDelay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.storeDelay):
		return nil
	}
}

func (f *fakeReservationRepo) Insert(ctx context.Context, r *domain.Reservation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return "", f.insertErr
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	f.rows[r.ID] = *r

	return r.ID, nil
}

func (f *fakeReservationRepo) Update(_ context.Context, r *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.rows[r.ID]
	if !ok {
		return fmt.Errorf("updating reservation %s: %w", r.ID, domain.ErrNotFound)
	}
	existing.ArrivalDate = r.ArrivalDate
	existing.DepartureDate = r.DepartureDate
	existing.UpdatedAt = time.Now().UTC()
	f.rows[r.ID] = existing

	return nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return fmt.Errorf("deleting reservation %s: %w", id, domain.ErrNotFound)
	}
	delete(f.rows, id)

	return nil
}

func (f *fakeReservationRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.storeErr != nil {
		return nil, f.storeErr
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, nil
	}

	return &r, nil
}

func (f *fakeReservationRepo) HasOverlap(ctx context.Context, excludeID string, start, end domain.Date) (bool, error) {
	if err := f.wait(ctx); err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.overlapCalls++
	if f.storeErr != nil {
		return false, f.storeErr
	}
	if f.overlapHook != nil {
		return f.overlapHook(f.overlapCalls), nil
	}

	want := domain.DateRange{Start: start, End: end}
	for id, r := range f.rows {
		if id != excludeID && r.Range().Overlaps(want) {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeReservationRepo) ReservedDates(ctx context.Context, start, end domain.Date) (map[domain.Date]struct{}, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.storeErr != nil {
		return nil, f.storeErr
	}

	window := domain.DateRange{Start: start, End: end}
	reserved := make(map[domain.Date]struct{})
	for _, r := range f.rows {
		span, ok := r.Range().Clip(window)
		if !ok {
			continue
		}
		days, _ := domain.ContinuousDates(span.Start, span.End)
		for _, d := range days {
			reserved[d] = struct{}{}
		}
	}

	return reserved, nil
}

func (f *fakeReservationRepo) FindOverlappingPairs(_ context.Context) ([]domain.OverlapPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.storeErr != nil {
		return nil, f.storeErr
	}

	ids := make([]string, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var pairs []domain.OverlapPair
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			a, b := f.rows[ids[i]], f.rows[ids[j]]
			if span, ok := a.Range().Clip(b.Range()); ok {
				pairs = append(pairs, domain.OverlapPair{FirstID: a.ID, SecondID: b.ID, Overlap: span})
			}
		}
	}

	return pairs, nil
}

// fakeCustomerRepo is an in-memory domain.CustomerRepository keyed by email.
type fakeCustomerRepo struct {
	mu        sync.Mutex
	byID      map[string]domain.Customer
	upsertErr error
	updateErr error
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{byID: make(map[string]domain.Customer)}
}

func (f *fakeCustomerRepo) UpsertByEmail(_ context.Context, email, fullName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	for id, c := range f.byID {
		if c.Email == email {
			c.FullName = fullName
			f.byID[id] = c
			return id, nil
		}
	}

	id := uuid.NewString()
	f.byID[id] = domain.Customer{ID: id, Email: email, FullName: fullName}

	return id, nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}

	return &c, nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, c *domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, other := range f.byID {
		if id != c.ID && strings.EqualFold(other.Email, c.Email) {
			return fmt.Errorf("email %s taken", c.Email)
		}
	}
	f.byID[c.ID] = *c

	return nil
}

func (f *fakeCustomerRepo) customer(id string) domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.byID[id]
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []domain.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]domain.ReservationEvent(nil), p.events...)
}
