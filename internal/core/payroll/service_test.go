package payroll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakePayrollRepo struct {
	entries  map[string]*Entry
	sequence int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{entries: make(map[string]*Entry)}
}

func (r *fakePayrollRepo) Create(_ context.Context, entry *Entry) (*Entry, error) {
	clone := *entry
	r.sequence++
	clone.ID = fmt.Sprintf("pay-%d", r.sequence)
	r.entries[clone.ID] = &clone
	copied := clone
	return &copied, nil
}

func (r *fakePayrollRepo) Update(_ context.Context, entry *Entry) (*Entry, error) {
	if _, ok := r.entries[entry.ID]; !ok {
		return nil, ErrEntryNotFound
	}
	clone := *entry
	r.entries[entry.ID] = &clone
	copied := clone
	return &copied, nil
}

func (r *fakePayrollRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *fakePayrollRepo) FindByID(_ context.Context, id string) (*Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	clone := *entry
	return &clone, nil
}

func (r *fakePayrollRepo) List(_ context.Context, filter ListFilter) ([]*Entry, string, error) {
	var out []*Entry
	for _, entry := range r.entries {
		if filter.EmployeeID != "" && entry.EmployeeID != filter.EmployeeID {
			continue
		}
		clone := *entry
		out = append(out, &clone)
	}
	return out, "", nil
}

func (r *fakePayrollRepo) ListRecent(_ context.Context, limit int) ([]*Entry, error) {
	var out []*Entry
	for _, entry := range r.entries {
		if len(out) == limit {
			break
		}
		clone := *entry
		out = append(out, &clone)
	}
	return out, nil
}

func TestService_Create_ValidatesPeriod(t *testing.T) {
	t.Parallel()

	repo := newFakePayrollRepo()
	service := NewService(repo, &stubClock{now: time.Now().UTC()})

	start := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	_, err := service.Create(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}

	if _, err := service.Create(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		PeriodStart: start,
		PeriodEnd:   start,
	}); err != nil {
		t.Fatalf("single-day period should be valid, got %v", err)
	}
}

func TestService_Create_KeepsAmountsVerbatim(t *testing.T) {
	t.Parallel()

	repo := newFakePayrollRepo()
	service := NewService(repo, &stubClock{now: time.Now().UTC()})

	salary := 120000.0
	created, err := service.Create(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		PeriodStart: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC),
		BasicSalary: &salary,
		Allowances:  map[string]any{"transport": 5000},
		Deductions:  map[string]any{"tax": 8000},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.BasicSalary == nil || *created.BasicSalary != salary {
		t.Fatalf("basic salary altered: %v", created.BasicSalary)
	}
	if created.Allowances["transport"] != 5000 {
		t.Fatalf("allowances blob altered: %v", created.Allowances)
	}
}

func TestService_Update_RevalidatesPeriod(t *testing.T) {
	t.Parallel()

	repo := newFakePayrollRepo()
	service := NewService(repo, &stubClock{now: time.Now().UTC()})

	created, err := service.Create(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		PeriodStart: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	badEnd := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	if _, err := service.Update(context.Background(), UpdateEntryInput{ID: created.ID, PeriodEnd: &badEnd}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
