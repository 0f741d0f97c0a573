// Package employment は仕事と担当者の対応表 (job id -> person id) を管理します。
//
// Registry は 1 つの仕事に高々 1 人の担当者しか記録しません。
// 担当者の台帳 (person.Person.UpdateJobs) の更新は呼び出し側の責務です。
package employment

import (
	"context"
	"maps"
	"slices"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/person"
)

// Registry は job id から person id への対応表です。
// 同期は行わないため、所有者がコマンドを直列に実行する必要があります。
type Registry struct {
	assignments map[string]string
}

// New は空の Registry を生成します。
func New() *Registry {
	return &Registry{assignments: make(map[string]string)}
}

// FromMap は保存済みの対応表から Registry を生成します。m はコピーされます。
func FromMap(m map[string]string) *Registry {
	r := New()
	for jobID, personID := range m {
		r.assignments[jobID] = personID
	}
	return r
}

// Associate は job の担当者を person にします。以前の担当者は上書きされます。
func (r *Registry) Associate(j job.Job, p person.Person) {
	r.assignments[j.ID()] = p.ID()
}

// DeletePerson は person が担当するすべての対応を削除し、削除した job id を返します。
func (r *Registry) DeletePerson(p person.Person) []string {
	var orphaned []string
	for jobID, personID := range r.assignments {
		if personID == p.ID() {
			orphaned = append(orphaned, jobID)
		}
	}
	for _, jobID := range orphaned {
		delete(r.assignments, jobID)
	}
	slices.Sort(orphaned)
	return orphaned
}

// EditPerson は oldPerson の対応をすべて newPerson へ付け替えます。
func (r *Registry) EditPerson(oldPerson, newPerson person.Person) {
	for jobID, personID := range r.assignments {
		if personID == oldPerson.ID() {
			r.assignments[jobID] = newPerson.ID()
		}
	}
}

// DeleteJob は job の対応を削除します。
func (r *Registry) DeleteJob(j job.Job) {
	delete(r.assignments, j.ID())
}

// AssigneeOf は jobID の担当者 id を返します。
func (r *Registry) AssigneeOf(jobID string) (string, bool) {
	personID, ok := r.assignments[jobID]
	return personID, ok
}

// JobsFor は person が担当している仕事を jobs から抽出します。読み取り専用です。
func (r *Registry) JobsFor(ctx context.Context, p person.Person, jobs job.Repository) ([]job.Job, error) {
	personID := p.ID()
	found, _, err := jobs.List(ctx, job.ListFilter{
		Match: func(j job.Job) bool {
			assignee, ok := r.assignments[j.ID()]
			return ok && assignee == personID
		},
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Snapshot は対応表のコピーを返します。
func (r *Registry) Snapshot() map[string]string {
	return maps.Clone(r.assignments)
}

// Len は記録されている対応の数を返します。
func (r *Registry) Len() int {
	return len(r.assignments)
}

// Reset はすべての対応を削除します。
func (r *Registry) Reset() {
	clear(r.assignments)
}

// Replace は対応表を other の内容で置き換えます。
func (r *Registry) Replace(other *Registry) {
	r.assignments = other.Snapshot()
	if r.assignments == nil {
		r.assignments = make(map[string]string)
	}
}
