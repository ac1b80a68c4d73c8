package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"gazeta/internal/logging"
	"gazeta/internal/metrics"
	"gazeta/internal/store"
)

// Transactor is the store primitive the view counter relies on.
type Transactor interface {
	Transaction(c store.Collection, key, field string, fn store.TxFunc) (any, error)
}

// ViewCounter bumps the views field of an article. Increment never blocks
// the caller and never reports failure to it.
type ViewCounter struct {
	tx      Transactor
	log     *zap.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewViewCounter(tx Transactor, log *zap.Logger, m *metrics.Metrics) *ViewCounter {
	return &ViewCounter{
		tx:      tx,
		log:     logging.OrNop(log).Named("views"),
		metrics: m,
	}
}

// Increment schedules one increment of the article's view count.
func (v *ViewCounter) Increment(key string) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		_, _ = v.IncrementSync(key)
	}()
}

// IncrementSync performs the increment and returns the committed count.
func (v *ViewCounter) IncrementSync(key string) (int64, error) {
	out, err := v.tx.Transaction(store.Articles, key, "views", addOne)
	if err != nil {
		v.metrics.ViewIncrementFailed()
		v.log.Warn("view increment failed", zap.String("key", key), zap.Error(err))
		return 0, err
	}
	v.metrics.ArticleViewed()
	n, _ := out.(int64)
	return n, nil
}

// Wait blocks until every scheduled increment has finished.
func (v *ViewCounter) Wait() { v.wg.Wait() }

func addOne(cur any) (any, error) {
	n, err := toInt64(cur)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	return n + 1, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("views: %w", err)
		}
		return int64(f), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		if t == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("views: %w", err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("views: unexpected type %T", v)
}
