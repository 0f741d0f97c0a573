package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/employment"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/money"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

type fakePersonRepo struct {
	persons    map[string]person.Person
	order      []string
	replaceErr error
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{persons: make(map[string]person.Person)}
}

func (r *fakePersonRepo) Create(_ context.Context, p person.Person) error {
	if _, ok := r.persons[p.ID()]; ok {
		return person.ErrPersonExists
	}
	r.persons[p.ID()] = p
	r.order = append(r.order, p.ID())
	return nil
}

func (r *fakePersonRepo) Replace(_ context.Context, p person.Person) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	if _, ok := r.persons[p.ID()]; !ok {
		return person.ErrPersonNotFound
	}
	r.persons[p.ID()] = p
	return nil
}

func (r *fakePersonRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.persons[id]; !ok {
		return person.ErrPersonNotFound
	}
	delete(r.persons, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakePersonRepo) FindByID(_ context.Context, id string) (person.Person, error) {
	p, ok := r.persons[id]
	if !ok {
		return person.Person{}, person.ErrPersonNotFound
	}
	return p, nil
}

func (r *fakePersonRepo) List(_ context.Context, filter person.ListFilter) ([]person.Person, string, error) {
	var filtered []person.Person
	for _, id := range r.order {
		p := r.persons[id]
		if filter.Match != nil && !filter.Match(p) {
			continue
		}
		filtered = append(filtered, p)
	}
	return paginate(filtered, filter.Limit, filter.Offset)
}

func (r *fakePersonRepo) ReplaceAll(_ context.Context, persons []person.Person) error {
	r.persons = make(map[string]person.Person, len(persons))
	r.order = nil
	for _, p := range persons {
		r.persons[p.ID()] = p
		r.order = append(r.order, p.ID())
	}
	return nil
}

type fakeJobRepo struct {
	jobs  map[string]job.Job
	order []string
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]job.Job)}
}

func (r *fakeJobRepo) Create(_ context.Context, j job.Job) error {
	if _, ok := r.jobs[j.ID()]; ok {
		return job.ErrJobExists
	}
	r.jobs[j.ID()] = j
	r.order = append(r.order, j.ID())
	return nil
}

func (r *fakeJobRepo) Replace(_ context.Context, j job.Job) error {
	if _, ok := r.jobs[j.ID()]; !ok {
		return job.ErrJobNotFound
	}
	r.jobs[j.ID()] = j
	return nil
}

func (r *fakeJobRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.jobs[id]; !ok {
		return job.ErrJobNotFound
	}
	delete(r.jobs, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeJobRepo) FindByID(_ context.Context, id string) (job.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	return j, nil
}

func (r *fakeJobRepo) List(_ context.Context, filter job.ListFilter) ([]job.Job, string, error) {
	var filtered []job.Job
	for _, id := range r.order {
		j := r.jobs[id]
		if filter.Match != nil && !filter.Match(j) {
			continue
		}
		filtered = append(filtered, j)
	}
	return paginate(filtered, filter.Limit, filter.Offset)
}

func (r *fakeJobRepo) ReplaceAll(_ context.Context, jobs []job.Job) error {
	r.jobs = make(map[string]job.Job, len(jobs))
	r.order = nil
	for _, j := range jobs {
		r.jobs[j.ID()] = j
		r.order = append(r.order, j.ID())
	}
	return nil
}

func paginate[T any](items []T, limit, offset int) ([]T, string, error) {
	if limit == 0 {
		return items, "", nil
	}
	if offset > len(items) {
		return []T{}, "", nil
	}
	end := min(offset+limit, len(items))
	var next string
	if end < len(items) {
		next = strconv.Itoa(end)
	}
	return items[offset:end], next, nil
}

type fakeStateStore struct {
	state   State
	loadErr error
	saveErr error
	saves   []State
}

func (s *fakeStateStore) Load(context.Context) (State, error) {
	if s.loadErr != nil {
		return State{}, s.loadErr
	}
	return s.state, nil
}

func (s *fakeStateStore) Save(_ context.Context, state State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, state)
	return nil
}

type fixture struct {
	svc      *Service
	persons  *fakePersonRepo
	jobs     *fakeJobRepo
	registry *employment.Registry
	store    *fakeStateStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		persons:  newFakePersonRepo(),
		jobs:     newFakeJobRepo(),
		registry: employment.New(),
		store:    &fakeStateStore{},
	}
	f.svc = NewService(f.persons, f.jobs, f.registry, WithStateStore(f.store))
	return f
}

func (f *fixture) addPerson(t *testing.T, name string) person.Person {
	t.Helper()
	p, err := f.svc.AddPerson(context.Background(), AddPersonInput{
		Name:    name,
		Phone:   "98765432",
		Email:   "someone@example.com",
		Address: "311, Clementi Ave 2, #02-25",
	})
	if err != nil {
		t.Fatalf("AddPerson(%q) returned error: %v", name, err)
	}
	return p
}

func (f *fixture) addEating(t *testing.T) job.Job {
	t.Helper()
	j, err := f.svc.AddJob(context.Background(), AddJobInput{
		Name:     "Eating",
		Rate:     "$5.50",
		Duration: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("AddJob returned error: %v", err)
	}
	return j
}

func TestAssignAndPayJob(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice Pauline")
	eating := f.addEating(t)

	assigned, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()})
	if err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}
	if got := assigned.Person.OwedSalary().String(); got != "$132.00" {
		t.Fatalf("owed salary after assignment = %s, want $132.00", got)
	}
	if paid, ok := assigned.Person.HasJob(eating.ID()); !ok || paid {
		t.Fatalf("ledger entry = (%v, %v), want (false, true)", paid, ok)
	}
	if !assigned.Job.HasPerson(alice.ID()) {
		t.Fatalf("job persons = %v, want to contain %s", assigned.Job.Persons(), alice.ID())
	}
	if personID, ok := f.registry.AssigneeOf(eating.ID()); !ok || personID != alice.ID() {
		t.Fatalf("registry assignee = %q, want %q", personID, alice.ID())
	}

	paid, err := f.svc.PayJob(ctx, eating.ID())
	if err != nil {
		t.Fatalf("PayJob returned error: %v", err)
	}
	if !paid.Job.Paid() {
		t.Fatalf("expected job to be paid")
	}
	if paid.Assignee == nil {
		t.Fatalf("expected assignee in payment result")
	}
	if !paid.Assignee.OwedSalary().IsZero() {
		t.Fatalf("owed salary after payment = %s, want $0.00", paid.Assignee.OwedSalary())
	}
	if _, ok := paid.Assignee.HasJob(eating.ID()); ok {
		t.Fatalf("expected settled job to be removed from ledger")
	}

	current, err := f.svc.GetPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("GetPerson returned error: %v", err)
	}
	if !current.Equal(*paid.Assignee) {
		t.Fatalf("stored person = %v, want %v", current, *paid.Assignee)
	}

	// AddPerson, AddJob, AssignJob, PayJob
	if len(f.store.saves) != 4 {
		t.Fatalf("saves = %d, want 4", len(f.store.saves))
	}
	last := f.store.saves[len(f.store.saves)-1]
	if len(last.Persons) != 1 || len(last.Jobs) != 1 || last.Employment[eating.ID()] != alice.ID() {
		t.Fatalf("unexpected saved state: %+v", last)
	}
}

func TestPayJobIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	eating := f.addEating(t)
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}
	if _, err := f.svc.PayJob(ctx, eating.ID()); err != nil {
		t.Fatalf("PayJob returned error: %v", err)
	}
	saves := len(f.store.saves)

	again, err := f.svc.PayJob(ctx, eating.ID())
	if err != nil {
		t.Fatalf("second PayJob returned error: %v", err)
	}
	if !again.Assignee.OwedSalary().IsZero() {
		t.Fatalf("owed salary = %s, want $0.00", again.Assignee.OwedSalary())
	}
	if len(f.store.saves) != saves {
		t.Fatalf("expected no save for an already paid job")
	}
}

func TestPayJobWithoutAssignee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	eating := f.addEating(t)

	result, err := f.svc.PayJob(context.Background(), eating.ID())
	if err != nil {
		t.Fatalf("PayJob returned error: %v", err)
	}
	if !result.Job.Paid() || result.Assignee != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMarkJobUnpaidRejectsPaidJob(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	eating := f.addEating(t)
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}

	unpaid, err := f.svc.MarkJobUnpaid(ctx, eating.ID())
	if err != nil {
		t.Fatalf("MarkJobUnpaid on unpaid job returned error: %v", err)
	}
	if unpaid.Paid() {
		t.Fatalf("expected unpaid job")
	}

	paid, err := f.svc.PayJob(ctx, eating.ID())
	if err != nil {
		t.Fatalf("PayJob returned error: %v", err)
	}
	saves := len(f.store.saves)

	if _, err := f.svc.MarkJobUnpaid(ctx, eating.ID()); !errors.Is(err, job.ErrIllegalPayment) {
		t.Fatalf("expected ErrIllegalPayment, got %v", err)
	}

	current, err := f.svc.GetJob(ctx, eating.ID())
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if !current.Equal(paid.Job) {
		t.Fatalf("job changed after rejected command: %v", current)
	}
	after, err := f.svc.GetPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("GetPerson returned error: %v", err)
	}
	if !after.Equal(*paid.Assignee) {
		t.Fatalf("person changed after rejected command: %v", after)
	}
	if len(f.store.saves) != saves {
		t.Fatalf("expected no save after rejected command")
	}
}

func TestAssignJobRejectsDuplicate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	eating := f.addEating(t)
	first, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()})
	if err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}

	_, err = f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()})
	if !errors.Is(err, person.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}

	after, err := f.svc.GetPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("GetPerson returned error: %v", err)
	}
	if !after.Equal(first.Person) {
		t.Fatalf("person changed after duplicate assignment: %v", after)
	}
}

func TestAssignJobSupersedesPreviousAssignee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	bob := f.addPerson(t, "Bob")
	eating := f.addEating(t)

	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob(alice) returned error: %v", err)
	}
	result, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: bob.ID()})
	if err != nil {
		t.Fatalf("AssignJob(bob) returned error: %v", err)
	}

	if personID, _ := f.registry.AssigneeOf(eating.ID()); personID != bob.ID() {
		t.Fatalf("registry assignee = %q, want %q", personID, bob.ID())
	}
	if f.registry.Len() != 1 {
		t.Fatalf("registry size = %d, want 1", f.registry.Len())
	}
	if got := result.Job.Persons(); len(got) != 1 || got[0] != bob.ID() {
		t.Fatalf("job persons = %v, want [%s]", got, bob.ID())
	}

	// 以前の担当者の台帳はそのまま残ります。
	previous, err := f.svc.GetPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("GetPerson returned error: %v", err)
	}
	if got := previous.OwedSalary().String(); got != "$132.00" {
		t.Fatalf("previous assignee owed salary = %s, want $132.00", got)
	}

	aliceJobs, err := f.svc.JobsForPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("JobsForPerson(alice) returned error: %v", err)
	}
	if len(aliceJobs) != 0 {
		t.Fatalf("alice jobs = %v, want none", aliceJobs)
	}
	bobJobs, err := f.svc.JobsForPerson(ctx, bob.ID())
	if err != nil {
		t.Fatalf("JobsForPerson(bob) returned error: %v", err)
	}
	if len(bobJobs) != 1 || bobJobs[0].ID() != eating.ID() {
		t.Fatalf("bob jobs = %v, want [%s]", bobJobs, eating.ID())
	}

	// 以前の担当者の未払い分はどのコマンドでも精算されません。
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); !errors.Is(err, person.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob when reassigning to alice, got %v", err)
	}
	paid, err := f.svc.PayJob(ctx, eating.ID())
	if err != nil {
		t.Fatalf("PayJob returned error: %v", err)
	}
	if paid.Assignee == nil || paid.Assignee.ID() != bob.ID() {
		t.Fatalf("payment assignee = %v, want %s", paid.Assignee, bob.ID())
	}
	previous, err = f.svc.GetPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("GetPerson returned error: %v", err)
	}
	if got := previous.OwedSalary().String(); got != "$132.00" {
		t.Fatalf("previous assignee owed salary after payment = %s, want $132.00", got)
	}
}

func TestAssignJobRollsBackOnReplaceFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	eating := f.addEating(t)

	boom := errors.New("boom")
	f.persons.replaceErr = boom

	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	current, err := f.svc.GetJob(ctx, eating.ID())
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if !current.Equal(eating) {
		t.Fatalf("job was not rolled back: %v", current.Persons())
	}
	if f.registry.Len() != 0 {
		t.Fatalf("registry changed after failed assignment")
	}
}

func TestAssignJobNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	eating := f.addEating(t)

	tests := []struct {
		name string
		in   AssignJobInput
		want error
	}{
		{name: "missing job", in: AssignJobInput{JobID: "999", PersonID: alice.ID()}, want: job.ErrJobNotFound},
		{name: "missing person", in: AssignJobInput{JobID: eating.ID(), PersonID: "999"}, want: person.ErrPersonNotFound},
		{name: "blank job id", in: AssignJobInput{JobID: " ", PersonID: alice.ID()}, want: ErrInvalidID},
	}

	for _, tt := range tests {
		if _, err := f.svc.AssignJob(ctx, tt.in); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestDeletePersonOrphansJobs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	bob := f.addPerson(t, "Bob")
	eating := f.addEating(t)
	running, err := f.svc.AddJob(ctx, AddJobInput{Name: "Running", Rate: "6", RatePeriod: 4 * time.Hour, Duration: 8 * time.Hour})
	if err != nil {
		t.Fatalf("AddJob returned error: %v", err)
	}

	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: running.ID(), PersonID: bob.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}

	if err := f.svc.DeletePerson(ctx, alice.ID()); err != nil {
		t.Fatalf("DeletePerson returned error: %v", err)
	}

	if _, err := f.svc.GetPerson(ctx, alice.ID()); !errors.Is(err, person.ErrPersonNotFound) {
		t.Fatalf("expected ErrPersonNotFound, got %v", err)
	}
	if _, ok := f.registry.AssigneeOf(eating.ID()); ok {
		t.Fatalf("expected eating to be orphaned")
	}
	if personID, _ := f.registry.AssigneeOf(running.ID()); personID != bob.ID() {
		t.Fatalf("running assignee = %q, want %q", personID, bob.ID())
	}
	orphan, err := f.svc.GetJob(ctx, eating.ID())
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if len(orphan.Persons()) != 0 {
		t.Fatalf("orphaned job persons = %v, want none", orphan.Persons())
	}
}

func TestDeleteJobKeepsAssigneeLedger(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	eating := f.addEating(t)
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}

	if err := f.svc.DeleteJob(ctx, eating.ID()); err != nil {
		t.Fatalf("DeleteJob returned error: %v", err)
	}
	if f.registry.Len() != 0 {
		t.Fatalf("expected registry entry to be removed")
	}
	after, err := f.svc.GetPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("GetPerson returned error: %v", err)
	}
	if got := after.OwedSalary().String(); got != "$132.00" {
		t.Fatalf("owed salary = %s, want $132.00", got)
	}
	if err := f.svc.DeleteJob(ctx, eating.ID()); !errors.Is(err, job.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestAddPersonRejectsSamePerson(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addPerson(t, "Alice Pauline")

	_, err := f.svc.AddPerson(context.Background(), AddPersonInput{
		Name:    "alice pauline",
		Phone:   "12345",
		Email:   "other@example.com",
		Address: "Elsewhere",
	})
	if !errors.Is(err, person.ErrPersonExists) {
		t.Fatalf("expected ErrPersonExists, got %v", err)
	}
}

func TestAddPersonValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.AddPerson(context.Background(), AddPersonInput{
		Name:    "Alice",
		Phone:   "12",
		Email:   "alice@example.com",
		Address: "Somewhere",
	})
	if !errors.Is(err, person.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if len(f.store.saves) != 0 {
		t.Fatalf("expected no save after rejected command")
	}
}

func TestEditPersonKeepsLedger(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	f.addPerson(t, "Bob")
	eating := f.addEating(t)
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}

	newPhone := "91234567"
	overtime, err := person.NewTag("friends")
	if err != nil {
		t.Fatalf("NewTag returned error: %v", err)
	}
	edited, err := f.svc.EditPerson(ctx, EditPersonInput{
		ID:      alice.ID(),
		Phone:   &newPhone,
		Tags:    []person.Tag{overtime},
		TagsSet: true,
	})
	if err != nil {
		t.Fatalf("EditPerson returned error: %v", err)
	}
	if edited.Phone() != newPhone || edited.Name() != "Alice" {
		t.Fatalf("unexpected details: %v", edited)
	}
	if len(edited.Tags()) != 1 {
		t.Fatalf("tags = %v, want 1 tag", edited.Tags())
	}
	if got := edited.OwedSalary().String(); got != "$132.00" {
		t.Fatalf("owed salary = %s, want $132.00", got)
	}
	if personID, _ := f.registry.AssigneeOf(eating.ID()); personID != alice.ID() {
		t.Fatalf("registry assignee = %q, want %q", personID, alice.ID())
	}

	bobName := "BOB"
	if _, err := f.svc.EditPerson(ctx, EditPersonInput{ID: alice.ID(), Name: &bobName}); !errors.Is(err, person.ErrPersonExists) {
		t.Fatalf("expected ErrPersonExists, got %v", err)
	}
}

func TestListPersonsAndJobs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.addPerson(t, "Alice Pauline")
	f.addPerson(t, "Benson Meier")
	f.addPerson(t, "Carl Kurz")
	eating := f.addEating(t)
	if _, err := f.svc.AddJob(ctx, AddJobInput{Name: "Running", Rate: "6", RatePeriod: 4 * time.Hour, Duration: 8 * time.Hour}); err != nil {
		t.Fatalf("AddJob returned error: %v", err)
	}
	if _, err := f.svc.PayJob(ctx, eating.ID()); err != nil {
		t.Fatalf("PayJob returned error: %v", err)
	}

	page, err := f.svc.ListPersons(ctx, ListPersonsInput{PageSize: 2})
	if err != nil {
		t.Fatalf("ListPersons returned error: %v", err)
	}
	if len(page.Persons) != 2 || page.NextPageToken != "2" {
		t.Fatalf("unexpected first page: %d persons, token %q", len(page.Persons), page.NextPageToken)
	}
	rest, err := f.svc.ListPersons(ctx, ListPersonsInput{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("ListPersons returned error: %v", err)
	}
	if len(rest.Persons) != 1 || rest.NextPageToken != "" {
		t.Fatalf("unexpected second page: %d persons, token %q", len(rest.Persons), rest.NextPageToken)
	}

	matched, err := f.svc.ListPersons(ctx, ListPersonsInput{Keyword: "MEIER"})
	if err != nil {
		t.Fatalf("ListPersons returned error: %v", err)
	}
	if len(matched.Persons) != 1 || matched.Persons[0].Name() != "Benson Meier" {
		t.Fatalf("unexpected keyword result: %v", matched.Persons)
	}

	unpaid := false
	jobs, err := f.svc.ListJobs(ctx, ListJobsInput{Paid: &unpaid})
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if len(jobs.Jobs) != 1 || jobs.Jobs[0].Name() != "Running" {
		t.Fatalf("unexpected unpaid jobs: %v", jobs.Jobs)
	}
	if got := jobs.Jobs[0].CalculatePay().String(); got != "$12.00" {
		t.Fatalf("running pay = %s, want $12.00", got)
	}

	paidEating, err := f.svc.ListJobs(ctx, ListJobsInput{Keyword: " eat "})
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if len(paidEating.Jobs) != 1 || paidEating.Jobs[0].ID() != eating.ID() {
		t.Fatalf("unexpected keyword jobs: %v", paidEating.Jobs)
	}
	none, err := f.svc.ListJobs(ctx, ListJobsInput{Keyword: "EAT", Paid: &unpaid})
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if len(none.Jobs) != 0 {
		t.Fatalf("keyword and paid filters should combine, got %v", none.Jobs)
	}

	if _, err := f.svc.ListJobs(ctx, ListJobsInput{PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, err := f.svc.ListPersons(ctx, ListPersonsInput{PageToken: "-1"}); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestExportPerson(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice Pauline")
	bob := f.addPerson(t, "Benson Meier")
	eating := f.addEating(t)
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}
	saves := len(f.store.saves)

	out, err := f.svc.ExportPerson(ctx, alice.ID())
	if err != nil {
		t.Fatalf("ExportPerson returned error: %v", err)
	}
	if out.Person.ID() != alice.ID() || out.Person.OwedSalary().String() != "$132.00" {
		t.Fatalf("unexpected exported person %v", out.Person)
	}
	if len(out.Jobs) != 1 || out.Jobs[0].ID() != eating.ID() {
		t.Fatalf("unexpected exported jobs %v", out.Jobs)
	}

	var doc struct {
		Person person.Person `json:"person"`
		Jobs   []job.Job     `json:"jobs"`
	}
	if err := json.Unmarshal(out.Document, &doc); err != nil {
		t.Fatalf("exported document is not valid JSON: %v", err)
	}
	if !doc.Person.Equal(out.Person) || len(doc.Jobs) != 1 || !doc.Jobs[0].Equal(out.Jobs[0]) {
		t.Fatalf("document does not round trip: %s", out.Document)
	}
	if len(f.store.saves) != saves {
		t.Fatalf("export should not save state")
	}

	empty, err := f.svc.ExportPerson(ctx, bob.ID())
	if err != nil {
		t.Fatalf("ExportPerson returned error: %v", err)
	}
	if len(empty.Jobs) != 0 || !strings.Contains(string(empty.Document), `"jobs":[]`) {
		t.Fatalf("unexpected export without jobs: %s", empty.Document)
	}

	if _, err := f.svc.ExportPerson(ctx, "99"); !errors.Is(err, person.ErrPersonNotFound) {
		t.Fatalf("expected person.ErrPersonNotFound, got %v", err)
	}
	if _, err := f.svc.ExportPerson(ctx, "  "); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestAddJobValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := []struct {
		name string
		in   AddJobInput
		want error
	}{
		{name: "unparsable rate", in: AddJobInput{Name: "Eating", Rate: "abc", Duration: time.Hour}, want: money.ErrInvalidAmount},
		{name: "negative rate", in: AddJobInput{Name: "Eating", Rate: "-1", Duration: time.Hour}, want: money.ErrInvalidRate},
		{name: "negative period", in: AddJobInput{Name: "Eating", Rate: "1", RatePeriod: -time.Hour, Duration: time.Hour}, want: money.ErrInvalidPeriod},
		{name: "blank name", in: AddJobInput{Name: " ", Rate: "1", Duration: time.Hour}, want: job.ErrInvalidName},
		{name: "negative duration", in: AddJobInput{Name: "Eating", Rate: "1", Duration: -time.Hour}, want: job.ErrInvalidDuration},
	}

	for _, tt := range tests {
		if _, err := f.svc.AddJob(context.Background(), tt.in); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestFlushFailureIsReported(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.store.saveErr = errors.New("disk full")

	p, err := f.svc.AddPerson(context.Background(), AddPersonInput{
		Name:    "Alice",
		Phone:   "12345",
		Email:   "alice@example.com",
		Address: "Somewhere",
	})
	if !errors.Is(err, ErrSaveState) {
		t.Fatalf("expected ErrSaveState, got %v", err)
	}
	if _, err := f.svc.GetPerson(context.Background(), p.ID()); err != nil {
		t.Fatalf("expected in-memory change to be kept, got %v", err)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addPerson(t, "Alice")
	eating := f.addEating(t)
	if _, err := f.svc.AssignJob(ctx, AssignJobInput{JobID: eating.ID(), PersonID: alice.ID()}); err != nil {
		t.Fatalf("AssignJob returned error: %v", err)
	}

	if err := f.svc.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if len(f.persons.persons) != 0 || len(f.jobs.jobs) != 0 || f.registry.Len() != 0 {
		t.Fatalf("expected empty model after Clear")
	}
	last := f.store.saves[len(f.store.saves)-1]
	if len(last.Persons) != 0 || len(last.Jobs) != 0 || len(last.Employment) != 0 {
		t.Fatalf("expected empty saved state, got %+v", last)
	}
}

func restoredState(t *testing.T) State {
	t.Helper()
	rate, err := money.Hourly(money.MustParse("5.5"))
	if err != nil {
		t.Fatalf("Hourly returned error: %v", err)
	}
	eating, err := job.New("1043", "Eating", rate, 24*time.Hour, false, "7")
	if err != nil {
		t.Fatalf("job.New returned error: %v", err)
	}
	alice, err := person.Restore("7", person.Details{
		Name:    "Alice",
		Phone:   "12345",
		Email:   "alice@example.com",
		Address: "Somewhere",
	}, money.MustParse("132"), map[string]bool{"1043": false})
	if err != nil {
		t.Fatalf("person.Restore returned error: %v", err)
	}
	return State{
		Persons:    []person.Person{alice},
		Jobs:       []job.Job{eating},
		Employment: map[string]string{"1043": "7"},
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.store.state = restoredState(t)

	if err := f.svc.Restore(ctx); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}

	alice, err := f.svc.GetPerson(ctx, "7")
	if err != nil {
		t.Fatalf("GetPerson returned error: %v", err)
	}
	if got := alice.OwedSalary().String(); got != "$132.00" {
		t.Fatalf("owed salary = %s, want $132.00", got)
	}
	jobs, err := f.svc.JobsForPerson(ctx, "7")
	if err != nil {
		t.Fatalf("JobsForPerson returned error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID() != "1043" {
		t.Fatalf("unexpected jobs: %v", jobs)
	}

	// 復元した id は再利用されません。
	bob := f.addPerson(t, "Bob")
	if bob.ID() != "1044" {
		t.Fatalf("new person id = %q, want 1044", bob.ID())
	}

	paid, err := f.svc.PayJob(ctx, "1043")
	if err != nil {
		t.Fatalf("PayJob returned error: %v", err)
	}
	if !paid.Assignee.OwedSalary().IsZero() {
		t.Fatalf("owed salary after payment = %s, want $0.00", paid.Assignee.OwedSalary())
	}
}

func TestRestoreRejectsInvalidState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{name: "unknown job", mutate: func(s *State) { s.Employment = map[string]string{"9999": "7"} }},
		{name: "unknown person", mutate: func(s *State) { s.Employment = map[string]string{"1043": "8"} }},
		{name: "empty person id", mutate: func(s *State) { s.Employment = map[string]string{"1043": ""} }},
		{name: "duplicate person", mutate: func(s *State) { s.Persons = append(s.Persons, s.Persons[0]) }},
		{name: "duplicate job", mutate: func(s *State) { s.Jobs = append(s.Jobs, s.Jobs[0]) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			existing := f.addPerson(t, "Existing")
			state := restoredState(t)
			tt.mutate(&state)
			f.store.state = state

			err := f.svc.Restore(context.Background())
			if !errors.Is(err, stored.ErrInvalidValue) {
				t.Fatalf("expected stored.ErrInvalidValue, got %v", err)
			}
			if _, err := f.svc.GetPerson(context.Background(), existing.ID()); err != nil {
				t.Fatalf("model changed after rejected restore: %v", err)
			}
			if f.registry.Len() != 0 {
				t.Fatalf("registry changed after rejected restore")
			}
		})
	}
}

func TestRestorePropagatesLoadError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.store.loadErr = stored.Invalid("person", "salary", nil)

	if err := f.svc.Restore(context.Background()); !errors.Is(err, stored.ErrInvalidValue) {
		t.Fatalf("expected stored.ErrInvalidValue, got %v", err)
	}
}

func TestSequentialIDsReserve(t *testing.T) {
	t.Parallel()

	ids := newSequentialIDs()
	if got := ids.NewJobID(); got != "1" {
		t.Fatalf("first id = %q, want 1", got)
	}
	ids.Reserve("10", "job_abc", "3")
	if got := ids.NewPersonID(); got != "11" {
		t.Fatalf("id after reserve = %q, want 11", got)
	}
}
