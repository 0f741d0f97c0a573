package person

import "context"

// Repository は人物ストアの抽象です。Person は値で受け渡しされ、Replace で丸ごと置き換えられます。
type Repository interface {
	Create(ctx context.Context, person Person) error
	Replace(ctx context.Context, person Person) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (Person, error)
	List(ctx context.Context, filter ListFilter) ([]Person, string, error)
	ReplaceAll(ctx context.Context, persons []Person) error
}

// ListFilter は一覧取得用フィルタです。Limit が 0 の場合は全件を返します。
type ListFilter struct {
	Match  func(Person) bool
	Limit  int
	Offset int
}
