package employment

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ogurasousui/peoplesoft-ledger/internal/core/stored"
)

var errEmptyID = errors.New("empty id")

// MarshalJSON は {"jobId": "personId"} のフラットなオブジェクトとして出力します。
func (r *Registry) MarshalJSON() ([]byte, error) {
	snapshot := r.Snapshot()
	if snapshot == nil {
		snapshot = map[string]string{}
	}
	return json.Marshal(snapshot)
}

// UnmarshalJSON はフラットなオブジェクトから対応表を復元します。
// オブジェクト以外や空の id は stored.ErrInvalidValue になります。
func (r *Registry) UnmarshalJSON(b []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return stored.Invalid("employment", "", err)
	}
	if raw == nil {
		return stored.Invalid("employment", "", nil)
	}
	if err := Validate(raw); err != nil {
		return err
	}
	r.assignments = raw
	return nil
}

// Validate は保存済みの対応表に空の id が含まれていないかを検証します。
func Validate(m map[string]string) error {
	for jobID, personID := range m {
		if strings.TrimSpace(jobID) == "" {
			return stored.Invalid("employment", "jobId", errEmptyID)
		}
		if strings.TrimSpace(personID) == "" {
			return stored.Invalid("employment", jobID, errEmptyID)
		}
	}
	return nil
}
