package person

import (
	"fmt"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/job"
)

// UpdateJobs は j を最新状態の仕事として受け取り、台帳を反映した新しい Person を返します。
//
//   - 未記録の仕事: jobs[id] = j.Paid() を記録し、未払いなら支払額を owedSalary に加算します。
//   - 未払いで記録済みの仕事が支払済みで届いた: 支払額を減算し、記録を削除します。
//   - 支払済みで記録済みの仕事が未払いで届いた: job.ErrIllegalPayment を返します。
//   - それ以外: 変化はありません。
//
// 同じ仕事の重複割り当ての検出は呼び出し側の責務です。
func (p Person) UpdateJobs(j job.Job) (Person, error) {
	recordedPaid, recorded := p.jobs[j.ID()]

	switch {
	case !recorded:
		return p.addNewJob(j), nil
	case !recordedPaid && j.Paid():
		return p.payJob(j), nil
	case recordedPaid && !j.Paid():
		return Person{}, fmt.Errorf("person %s: job %s: %w", p.id, j.ID(), job.ErrIllegalPayment)
	default:
		return p.clone(), nil
	}
}

func (p Person) addNewJob(j job.Job) Person {
	updated := p.clone()
	updated.jobs[j.ID()] = j.Paid()
	if !j.Paid() {
		updated.owedSalary = p.owedSalary.Add(j.CalculatePay())
	}
	return updated
}

func (p Person) payJob(j job.Job) Person {
	updated := p.clone()
	delete(updated.jobs, j.ID())
	updated.owedSalary = p.owedSalary.Sub(j.CalculatePay())
	return updated
}
