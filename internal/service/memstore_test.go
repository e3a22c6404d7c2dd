package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"keyrental-backend/internal/audit"
	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/repository"
)

// memStore is an in-memory ledger used to exercise the engine end to end.
// A failed unit of work restores the state it started from.
type memStore struct {
	students    map[string]domain.Student
	memberships map[string]map[int32]domain.MembershipRole
	orgs        map[int32]domain.Organization
	catalog     map[domain.ItemKind]map[int32]string
	txs         []domain.RentalTransaction
	items       []domain.RentalItem
}

func newMemStore() *memStore {
	return &memStore{
		students:    map[string]domain.Student{},
		memberships: map[string]map[int32]domain.MembershipRole{},
		orgs:        map[int32]domain.Organization{},
		catalog: map[domain.ItemKind]map[int32]string{
			domain.ItemKindPracticeRoom: {},
			domain.ItemKindPrintRoom:    {},
			domain.ItemKindStorage:      {},
		},
	}
}

func (m *memStore) addStudent(id string, orgIDs ...int32) {
	m.students[id] = domain.Student{ID: id, Name: "Student " + id}
	if m.memberships[id] == nil {
		m.memberships[id] = map[int32]domain.MembershipRole{}
	}
	for _, orgID := range orgIDs {
		m.memberships[id][orgID] = domain.MembershipRoleMember
	}
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range m.students {
		c.students[k] = v
	}
	for k, v := range m.memberships {
		c.memberships[k] = map[int32]domain.MembershipRole{}
		for o, r := range v {
			c.memberships[k][o] = r
		}
	}
	for k, v := range m.orgs {
		c.orgs[k] = v
	}
	for kind, ids := range m.catalog {
		for id, name := range ids {
			c.catalog[kind][id] = name
		}
	}
	c.txs = append([]domain.RentalTransaction(nil), m.txs...)
	c.items = append([]domain.RentalItem(nil), m.items...)
	return c
}

func (m *memStore) WithinTx(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	snapshot := m.clone()
	if err := fn(m); err != nil {
		*m = *snapshot
		return err
	}
	return nil
}

func (m *memStore) Students() repository.StudentRepository           { return memStudents{m} }
func (m *memStore) Organizations() repository.OrganizationRepository { return memOrgs{m} }
func (m *memStore) Catalog() repository.CatalogRepository            { return memCatalog{m} }
func (m *memStore) Ledger() repository.LedgerRepository              { return memLedger{m} }

func (m *memStore) transaction(id int64) *domain.RentalTransaction {
	for i := range m.txs {
		if m.txs[i].ID == id {
			return &m.txs[i]
		}
	}
	return nil
}

type memStudents struct{ m *memStore }

func (r memStudents) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.m.students[id]
	return ok, nil
}
func (r memStudents) IsMember(_ context.Context, id string, orgID int32) (bool, error) {
	_, ok := r.m.memberships[id][orgID]
	return ok, nil
}
func (r memStudents) ListAffiliations(context.Context, string) ([]domain.StudentAffiliation, error) {
	return nil, nil
}
func (r memStudents) Upsert(_ context.Context, s *domain.Student) error {
	r.m.students[s.ID] = *s
	return nil
}
func (r memStudents) UpsertMembership(_ context.Context, ms *domain.Membership) error {
	r.m.addStudent(ms.StudentID)
	r.m.memberships[ms.StudentID][ms.OrgID] = ms.Role
	return nil
}
func (r memStudents) DeleteMembershipsByOrg(_ context.Context, orgID int32) error {
	for _, orgs := range r.m.memberships {
		delete(orgs, orgID)
	}
	return nil
}
func (r memStudents) DeleteAll(context.Context) error {
	r.m.students = map[string]domain.Student{}
	r.m.memberships = map[string]map[int32]domain.MembershipRole{}
	return nil
}

type memOrgs struct{ m *memStore }

func (r memOrgs) Create(_ context.Context, o *domain.Organization) error {
	r.m.orgs[o.ID] = *o
	return nil
}
func (r memOrgs) GetByID(_ context.Context, id int32) (*domain.Organization, error) {
	o, ok := r.m.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}
func (r memOrgs) GetByName(_ context.Context, name string) (*domain.Organization, error) {
	for _, o := range r.m.orgs {
		if o.Name == name {
			found := o
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (r memOrgs) List(context.Context) ([]domain.Organization, error) { return nil, nil }
func (r memOrgs) ListMembers(context.Context, int32) ([]domain.OrganizationMembers, error) {
	return nil, nil
}
func (r memOrgs) Update(_ context.Context, o *domain.Organization) error {
	r.m.orgs[o.ID] = *o
	return nil
}
func (r memOrgs) Delete(_ context.Context, id int32) error {
	delete(r.m.orgs, id)
	return nil
}
func (r memOrgs) DeleteAll(context.Context) error {
	r.m.orgs = map[int32]domain.Organization{}
	return nil
}

type memCatalog struct{ m *memStore }

func (r memCatalog) ListPracticeRooms(context.Context) ([]domain.PracticeRoom, error) { return nil, nil }
func (r memCatalog) ListPrintRooms(context.Context) ([]domain.PrintRoom, error)       { return nil, nil }
func (r memCatalog) ListStorageUnits(context.Context) ([]domain.StorageUnit, error)   { return nil, nil }
func (r memCatalog) Exists(_ context.Context, kind domain.ItemKind, id int32) (bool, error) {
	_, ok := r.m.catalog[kind][id]
	return ok, nil
}
func (r memCatalog) EnsurePracticeRoom(context.Context, *domain.PracticeRoom) (bool, error) {
	return false, nil
}
func (r memCatalog) EnsurePrintRoom(context.Context, *domain.PrintRoom) (bool, error) {
	return false, nil
}
func (r memCatalog) EnsureStorageUnit(context.Context, *domain.StorageUnit) (bool, error) {
	return false, nil
}

type memLedger struct{ m *memStore }

func (r memLedger) ListActiveByStudent(_ context.Context, studentID string) ([]domain.ActiveRental, error) {
	var out []domain.ActiveRental
	for _, t := range r.m.txs {
		if t.Active() && t.StudentID == studentID {
			out = append(out, domain.ActiveRental{ID: t.ID, StudentID: t.StudentID, Kind: t.Allocation.Kind()})
		}
	}
	return out, nil
}
func (r memLedger) ListAllActive(_ context.Context) ([]domain.ActiveRental, error) {
	var out []domain.ActiveRental
	for _, t := range r.m.txs {
		if t.Active() {
			out = append(out, domain.ActiveRental{ID: t.ID, StudentID: t.StudentID, Kind: t.Allocation.Kind()})
		}
	}
	return out, nil
}
func (r memLedger) AllocationHeld(_ context.Context, a domain.Allocation) (bool, error) {
	if a.Kind() == domain.RentalKindStorageOnly {
		return false, nil
	}
	for _, t := range r.m.txs {
		if t.Active() && t.Allocation == a {
			return true, nil
		}
	}
	return false, nil
}
func (r memLedger) StorageUnitHeld(_ context.Context, id int32) (bool, error) {
	for _, it := range r.m.items {
		if it.Status == domain.RentalStatusActive && it.Resource.Kind == domain.ItemKindStorage && it.Resource.ID == id {
			return true, nil
		}
	}
	return false, nil
}
func (r memLedger) CreateTransaction(_ context.Context, rt *domain.RentalTransaction) error {
	rt.ID = int64(len(r.m.txs) + 1)
	rt.Status = domain.RentalStatusActive
	r.m.txs = append(r.m.txs, *rt)
	return nil
}
func (r memLedger) CreateItem(_ context.Context, it *domain.RentalItem) error {
	it.ID = int64(len(r.m.items) + 1)
	it.Status = domain.RentalStatusActive
	r.m.items = append(r.m.items, *it)
	return nil
}
func (r memLedger) CloseTransaction(_ context.Context, id int64, at time.Time) (int64, error) {
	t := r.m.transaction(id)
	if t == nil || !t.Active() {
		return 0, nil
	}
	t.Status = domain.RentalStatusReturned
	if t.ReturnedAt == nil {
		t.ReturnedAt = &at
	}
	return 1, nil
}
func (r memLedger) CloseActiveItems(_ context.Context, txID int64, at time.Time) (int64, error) {
	var n int64
	for i := range r.m.items {
		it := &r.m.items[i]
		if it.TransactionID == txID && it.Status == domain.RentalStatusActive {
			it.Status = domain.RentalStatusReturned
			if it.ReturnedAt == nil {
				it.ReturnedAt = &at
			}
			n++
		}
	}
	return n, nil
}
func (r memLedger) CloseItem(_ context.Context, itemID int64, at time.Time) (int64, bool, error) {
	for i := range r.m.items {
		it := &r.m.items[i]
		if it.ID == itemID {
			if it.Status != domain.RentalStatusActive {
				return 0, false, nil
			}
			it.Status = domain.RentalStatusReturned
			if it.ReturnedAt == nil {
				it.ReturnedAt = &at
			}
			return it.TransactionID, true, nil
		}
	}
	return 0, false, nil
}
func (r memLedger) CountActiveItems(_ context.Context, txID int64) (int, error) {
	n := 0
	for _, it := range r.m.items {
		if it.TransactionID == txID && it.Status == domain.RentalStatusActive {
			n++
		}
	}
	return n, nil
}
func (r memLedger) DeleteByOrg(context.Context, int32) error { return nil }
func (r memLedger) DeleteAll(context.Context) error          { return nil }
func (r memLedger) ListActiveItems(_ context.Context, txID int64) ([]domain.RentalItem, error) {
	rank := map[domain.ItemKind]int{
		domain.ItemKindRoom: 0, domain.ItemKindPracticeRoom: 1, domain.ItemKindPrintRoom: 2, domain.ItemKindStorage: 3,
	}
	out := []domain.RentalItem{}
	for _, it := range r.m.items {
		if it.TransactionID == txID && it.Status == domain.RentalStatusActive {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if rank[out[i].Resource.Kind] != rank[out[j].Resource.Kind] {
			return rank[out[i].Resource.Kind] < rank[out[j].Resource.Kind]
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
func (r memLedger) ListActive(context.Context) ([]domain.RentalTransaction, error) {
	var out []domain.RentalTransaction
	for _, t := range r.m.txs {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out, nil
}
func (r memLedger) ListHistory(_ context.Context, limit int) ([]domain.RentalTransaction, error) {
	return r.m.txs, nil
}
func (r memLedger) Usage(_ context.Context) (*domain.Usage, error) {
	u := &domain.Usage{Rooms: []string{}, PracticeRoomIDs: []int32{}, PrintRoomIDs: []int32{}, StorageUnitIDs: []int32{}}
	for _, t := range r.m.txs {
		if !t.Active() {
			continue
		}
		switch a := t.Allocation.(type) {
		case domain.RoomAllocation:
			u.Rooms = append(u.Rooms, a.RoomNumber)
		case domain.PracticeAllocation:
			u.PracticeRoomIDs = append(u.PracticeRoomIDs, a.PracticeRoomID)
		case domain.PrintRoomAllocation:
			u.PrintRoomIDs = append(u.PrintRoomIDs, a.PrintRoomID)
		}
	}
	for _, it := range r.m.items {
		if it.Status == domain.RentalStatusActive && it.Resource.Kind == domain.ItemKindStorage {
			u.StorageUnitIDs = append(u.StorageUnitIDs, it.Resource.ID)
		}
	}
	return u, nil
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType audit.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}
