package ledger

import "log/slog"

// Option は Service の任意設定です。
type Option func(*Service)

// WithStateStore はコマンド完了ごとに状態を保存する StateStore を設定します。
func WithStateStore(store StateStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithIDGenerator は id の払い出し方法を設定します。
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Service) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
