package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hris-labs/shiftgate/storage"
)

// RecordsCollection holds attendance records as JSON.
const RecordsCollection = "attendance_records"

// Filter selects records for Query. Empty fields match everything.
type Filter struct {
	Date       string
	EmployeeID string
}

// RecordStore persists attendance records.
type RecordStore struct {
	repo storage.Repository
}

// NewRecordStore returns a store over repo.
func NewRecordStore(repo storage.Repository) *RecordStore {
	return &RecordStore{repo: repo}
}

// Save creates or replaces rec.
func (s *RecordStore) Save(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.repo.Put(RecordsCollection, rec.ID, data); err != nil {
		return fmt.Errorf("saving attendance record %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *RecordStore) Get(id string) (Record, error) {
	data, err := s.repo.Get(RecordsCollection, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, fmt.Errorf("loading attendance record %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decoding attendance record %s: %w", id, err)
	}
	return rec, nil
}

// Query returns records matching f ordered by attendance date, then creation
// time. The result is never nil.
func (s *RecordStore) Query(f Filter) ([]Record, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	matched := make([]Record, 0, len(all))
	for _, rec := range all {
		if f.Date != "" && rec.AttendanceDate != f.Date {
			continue
		}
		if f.EmployeeID != "" && rec.EmployeeID != f.EmployeeID {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].AttendanceDate != matched[j].AttendanceDate {
			return matched[i].AttendanceDate < matched[j].AttendanceDate
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// ForEmployee returns every record of employeeID on any of dates.
func (s *RecordStore) ForEmployee(employeeID string, dates ...string) ([]Record, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(dates))
	for _, d := range dates {
		want[d] = true
	}
	var out []Record
	for _, rec := range all {
		if rec.EmployeeID == employeeID && want[rec.AttendanceDate] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *RecordStore) all() ([]Record, error) {
	ids, err := s.repo.List(RecordsCollection)
	if err != nil {
		return nil, fmt.Errorf("listing attendance records: %w", err)
	}
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
