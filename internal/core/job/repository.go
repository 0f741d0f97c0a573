package job

import "context"

// Repository は仕事ストアの抽象です。Job は値で受け渡しされ、Replace で丸ごと置き換えられます。
type Repository interface {
	Create(ctx context.Context, job Job) error
	Replace(ctx context.Context, job Job) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, filter ListFilter) ([]Job, string, error)
	ReplaceAll(ctx context.Context, jobs []Job) error
}

// ListFilter は一覧取得用フィルタです。Limit が 0 の場合は全件を返します。
type ListFilter struct {
	Match  func(Job) bool
	Limit  int
	Offset int
}
